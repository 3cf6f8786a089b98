package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/infrastructure/memory"
	"github.com/zjrosen/intreg/internal/registry/domain"
)

func TestBuilder_StandardBindings(t *testing.T) {
	db := NewTestDB(t)
	NewBuilder(t, db.BindingRepository()).WithStandardBindings().Build()

	ctx := context.Background()
	got, err := db.BindingRepository().Get(ctx, domain.KeyFor(ModuleX, "KYBER"))
	require.NoError(t, err)
	require.Equal(t, AdapterB, got)

	got, err = db.BindingRepository().Get(ctx, domain.KeyFor(Module1, "COMPOUND"))
	require.NoError(t, err)
	require.Equal(t, Adapter1, got)

	events, err := db.EventRepository().ListEvents(ctx, domain.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, "COMPOUND", events[0].Name)
	require.Equal(t, Owner, events[0].Caller)
}

func TestBuilder_MemoryStore(t *testing.T) {
	store := memory.NewStore()
	NewBuilder(t, store).WithBinding(Module2, "ONEINCH", Adapter2).Build()

	got, err := store.Get(context.Background(), domain.KeyFor(Module2, "ONEINCH"))
	require.NoError(t, err)
	require.Equal(t, Adapter2, got)
}

func TestNewTestDB_Migrated(t *testing.T) {
	db := NewTestDB(t)

	var count int
	err := db.Connection().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('integrations', 'integration_events')`,
	).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
