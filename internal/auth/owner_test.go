package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

var (
	owner    = domain.MustParseAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	stranger = domain.MustParseAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestOwnerPolicy_Authorize(t *testing.T) {
	p := NewOwnerPolicy(owner)

	require.NoError(t, p.Authorize(context.Background(), owner))

	err := p.Authorize(context.Background(), stranger)
	require.ErrorIs(t, err, domain.ErrNotOwner)
	require.Equal(t, domain.KindAuthorization, domain.KindOf(err))
}

func TestOwnerPolicy_ZeroOwnerDeniesEveryone(t *testing.T) {
	p := NewOwnerPolicy(domain.ZeroAddress)

	require.ErrorIs(t, p.Authorize(context.Background(), domain.ZeroAddress), domain.ErrNotOwner)
	require.ErrorIs(t, p.Authorize(context.Background(), owner), domain.ErrNotOwner)
}

func TestOwnerPolicy_TransferOwnership(t *testing.T) {
	ctx := context.Background()
	p := NewOwnerPolicy(owner)

	require.ErrorIs(t, p.TransferOwnership(ctx, stranger, stranger), domain.ErrNotOwner)
	require.ErrorIs(t, p.TransferOwnership(ctx, owner, domain.ZeroAddress), domain.ErrZeroOwner)
	require.Equal(t, owner, p.Owner())

	require.NoError(t, p.TransferOwnership(ctx, owner, stranger))
	require.Equal(t, stranger, p.Owner())
	require.ErrorIs(t, p.Authorize(ctx, owner), domain.ErrNotOwner)
	require.NoError(t, p.Authorize(ctx, stranger))
}

func TestOwnerPolicy_RenounceOwnership(t *testing.T) {
	ctx := context.Background()
	p := NewOwnerPolicy(owner)

	require.ErrorIs(t, p.RenounceOwnership(ctx, stranger), domain.ErrNotOwner)
	require.NoError(t, p.RenounceOwnership(ctx, owner))
	require.True(t, p.Owner().IsZero())
	require.ErrorIs(t, p.Authorize(ctx, owner), domain.ErrNotOwner)
}
