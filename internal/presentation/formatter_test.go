package presentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

var (
	module  = domain.MustParseAddress("0x1111111111111111111111111111111111111111")
	adapter = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
)

func TestFormatter_Lookup(t *testing.T) {
	var buf bytes.Buffer
	key := domain.KeyFor(module, "COMPOUND")
	require.NoError(t, NewFormatter(&buf).Format(NewLookupDTO(key, "COMPOUND", adapter)))

	var got LookupDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.True(t, got.Found)
	require.Equal(t, adapter.Hex(), got.Adapter)
	require.Equal(t, key.NameHash.Hex(), got.NameHash)
}

func TestFormatter_LookupMissingByHash(t *testing.T) {
	var buf bytes.Buffer
	key := domain.BindingKey{Module: module, NameHash: domain.HashName("NEVER")}
	require.NoError(t, NewFormatter(&buf).Format(NewLookupDTO(key, "", domain.ZeroAddress)))

	require.NotContains(t, buf.String(), `"name":`)
	require.Contains(t, buf.String(), `"found": false`)
	require.Contains(t, buf.String(), domain.ZeroAddress.Hex())
}

func TestFormatter_EmptyEventsRenderAsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatEvents(FromDomainEvents(nil)))
	require.Equal(t, "[]\n", buf.String())
}

func TestFromDomainEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	dto := FromDomainEvent(domain.Event{
		ID:        7,
		GUID:      "g",
		Kind:      domain.EventRemoveIntegration,
		Module:    module,
		Adapter:   adapter,
		Name:      "KYBER",
		NameHash:  domain.HashName("KYBER"),
		CreatedAt: at,
	})
	require.Equal(t, "RemoveIntegration", dto.Kind)
	require.Equal(t, time.UTC, dto.CreatedAt.Location())
	require.True(t, at.Equal(dto.CreatedAt))
	require.Equal(t, domain.ZeroAddress.Hex(), dto.Caller)
}

func TestFromError(t *testing.T) {
	err := fmt.Errorf("batch: %w", &domain.BatchError{Index: 3, Err: domain.ErrZeroAdapter})
	dto := FromError(err)
	require.Equal(t, "ZeroAdapter", dto.Code)
	require.Equal(t, "validation", dto.Kind)
	require.NotNil(t, dto.Index)
	require.Equal(t, 3, *dto.Index)

	plain := FromError(fmt.Errorf("disk full"))
	require.Empty(t, plain.Code)
	require.Nil(t, plain.Index)
}
