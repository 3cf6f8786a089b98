package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

// Builder accumulates bindings and stores them in one transaction,
// journaling an AddIntegration event for each as the registry would.
type Builder struct {
	t        *testing.T
	repo     domain.BindingRepository
	bindings []domain.Binding
}

// NewBuilder creates a builder for the given repository.
func NewBuilder(t *testing.T, repo domain.BindingRepository) *Builder {
	t.Helper()
	return &Builder{t: t, repo: repo}
}

// WithBinding adds module/name -> adapter.
func (b *Builder) WithBinding(module domain.Address, name string, adapter domain.Address) *Builder {
	b.bindings = append(b.bindings, domain.Binding{Module: module, Name: name, Adapter: adapter})
	return b
}

// Build stores all accumulated bindings.
func (b *Builder) Build() {
	b.t.Helper()
	ctx := context.Background()
	err := b.repo.WithTx(ctx, func(tx domain.BindingTx) error {
		events := make([]*domain.Event, 0, len(b.bindings))
		for _, binding := range b.bindings {
			if err := tx.Put(ctx, binding); err != nil {
				return err
			}
			events = append(events, &domain.Event{
				Kind:     domain.EventAddIntegration,
				Module:   binding.Module,
				Adapter:  binding.Adapter,
				Name:     binding.Name,
				NameHash: domain.HashName(binding.Name),
				Caller:   Owner,
			})
		}
		return tx.AppendEvents(ctx, events)
	})
	require.NoError(b.t, err)
}
