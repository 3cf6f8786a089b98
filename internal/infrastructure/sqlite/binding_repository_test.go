package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

var (
	moduleX  = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	moduleY  = domain.MustParseAddress("0x1111111111111111111111111111111111111112")
	adapterA = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	adapterB = domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	admin    = domain.MustParseAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

// setupTestDB creates a new DB in a temp dir. The DB is closed when the test completes.
func setupTestDB(t testing.TB) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	db, err := NewDB(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })
	return db
}

func put(t *testing.T, repo domain.BindingRepository, b domain.Binding) {
	t.Helper()
	err := repo.WithTx(context.Background(), func(tx domain.BindingTx) error {
		return tx.Put(context.Background(), b)
	})
	require.NoError(t, err)
}

func TestBindingRepository_GetMissingReturnsZero(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()

	got, err := repo.Get(context.Background(), domain.KeyFor(moduleX, "NEVER"))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestBindingRepository_PutAndGet(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()
	put(t, repo, domain.Binding{Module: moduleX, Name: "COMPOUND", Adapter: adapterA})

	got, err := repo.Get(context.Background(), domain.KeyFor(moduleX, "COMPOUND"))
	require.NoError(t, err)
	require.Equal(t, adapterA, got)

	// Same name under a different module is a different key
	got, err = repo.Get(context.Background(), domain.KeyFor(moduleY, "COMPOUND"))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestBindingRepository_PutOverwrites(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()
	put(t, repo, domain.Binding{Module: moduleX, Name: "COMPOUND", Adapter: adapterA})
	put(t, repo, domain.Binding{Module: moduleX, Name: "COMPOUND", Adapter: adapterB})

	got, err := repo.Get(context.Background(), domain.KeyFor(moduleX, "COMPOUND"))
	require.NoError(t, err)
	require.Equal(t, adapterB, got)
}

func TestBindingRepository_Delete(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()
	put(t, repo, domain.Binding{Module: moduleX, Name: "COMPOUND", Adapter: adapterA})

	err := repo.WithTx(context.Background(), func(tx domain.BindingTx) error {
		return tx.Delete(context.Background(), domain.KeyFor(moduleX, "COMPOUND"))
	})
	require.NoError(t, err)

	got, err := repo.Get(context.Background(), domain.KeyFor(moduleX, "COMPOUND"))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestBindingRepository_TxSeesOwnWrites(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()
	ctx := context.Background()

	err := repo.WithTx(ctx, func(tx domain.BindingTx) error {
		if err := tx.Put(ctx, domain.Binding{Module: moduleX, Name: "KYBER", Adapter: adapterA}); err != nil {
			return err
		}
		got, err := tx.Get(ctx, domain.KeyFor(moduleX, "KYBER"))
		if err != nil {
			return err
		}
		if got != adapterA {
			return fmt.Errorf("tx read %s, want %s", got, adapterA)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestBindingRepository_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	repo := db.BindingRepository()
	ctx := context.Background()
	put(t, repo, domain.Binding{Module: moduleX, Name: "COMPOUND", Adapter: adapterA})

	boom := errors.New("element 2 invalid")
	err := repo.WithTx(ctx, func(tx domain.BindingTx) error {
		_ = tx.Put(ctx, domain.Binding{Module: moduleX, Name: "KYBER", Adapter: adapterB})
		_ = tx.Delete(ctx, domain.KeyFor(moduleX, "COMPOUND"))
		_ = tx.AppendEvents(ctx, []*domain.Event{{Kind: domain.EventAddIntegration, Module: moduleX, Adapter: adapterB, Name: "KYBER"}})
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, domain.KeyFor(moduleX, "KYBER"))
	require.NoError(t, err)
	require.True(t, got.IsZero(), "rolled back put must not be visible")

	got, err = repo.Get(ctx, domain.KeyFor(moduleX, "COMPOUND"))
	require.NoError(t, err)
	require.Equal(t, adapterA, got, "rolled back delete must not be visible")

	events, err := db.EventRepository().ListEvents(ctx, domain.EventFilter{})
	require.NoError(t, err)
	require.Empty(t, events, "rolled back events must not be journaled")
}

func TestBindingRepository_RollbackOnPanic(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()
	ctx := context.Background()

	require.PanicsWithValue(t, "store exploded", func() {
		_ = repo.WithTx(ctx, func(tx domain.BindingTx) error {
			require.NoError(t, tx.Put(ctx, domain.Binding{Module: moduleX, Name: "KYBER", Adapter: adapterB}))
			panic("store exploded")
		})
	})

	got, err := repo.Get(ctx, domain.KeyFor(moduleX, "KYBER"))
	require.NoError(t, err)
	require.True(t, got.IsZero(), "write from the panicking transaction must not be visible")

	// The write lock was released, so the next transaction commits.
	put(t, repo, domain.Binding{Module: moduleX, Name: "COMPOUND", Adapter: adapterA})
	got, err = repo.Get(ctx, domain.KeyFor(moduleX, "COMPOUND"))
	require.NoError(t, err)
	require.Equal(t, adapterA, got)
}

func TestBindingRepository_Close(t *testing.T) {
	repo := setupTestDB(t).BindingRepository()
	require.NoError(t, repo.Close(), "Close should succeed (no-op)")
}

// TestBindingRepository_MatchesMapModel is a property-based test using rapid.
// Any sequence of committed puts and deletes leaves the store equal to a plain map.
func TestBindingRepository_MatchesMapModel(t *testing.T) {
	db := setupTestDB(t)
	repo := db.BindingRepository()
	modules := []domain.Address{moduleX, moduleY}
	names := []string{"COMPOUND", "KYBER", "ONEINCH", "compound"}
	adapters := []domain.Address{adapterA, adapterB}

	rapid.Check(t, func(r *rapid.T) {
		ctx := context.Background()
		model := make(map[domain.BindingKey]domain.Address)

		// Reset between runs; the DB is shared to keep the check fast
		_, err := db.conn.Exec(`DELETE FROM integrations`)
		if err != nil {
			r.Fatalf("reset failed: %v", err)
		}

		steps := rapid.IntRange(1, 30).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			m := rapid.SampledFrom(modules).Draw(r, "module")
			n := rapid.SampledFrom(names).Draw(r, "name")
			key := domain.KeyFor(m, n)
			del := rapid.Bool().Draw(r, "delete")

			err := repo.WithTx(ctx, func(tx domain.BindingTx) error {
				if del {
					return tx.Delete(ctx, key)
				}
				a := rapid.SampledFrom(adapters).Draw(r, "adapter")
				model[key] = a
				return tx.Put(ctx, domain.Binding{Module: m, Name: n, Adapter: a})
			})
			if err != nil {
				r.Fatalf("tx failed: %v", err)
			}
			if del {
				delete(model, key)
			}
		}

		for _, m := range modules {
			for _, n := range names {
				key := domain.KeyFor(m, n)
				got, err := repo.Get(ctx, key)
				if err != nil {
					r.Fatalf("get failed: %v", err)
				}
				if got != model[key] {
					r.Fatalf("key %s/%s: store has %s, model has %s", m, n, got, model[key])
				}
			}
		}
	})
}
