// Package memory provides in-process implementations of the registry
// repositories. Transactions work on a copy of the state and swap it in
// on commit, so a failed transaction leaves nothing behind.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

// Store implements domain.BindingRepository and domain.EventRepository.
type Store struct {
	mu       sync.RWMutex
	bindings map[domain.BindingKey]domain.Binding
	events   []domain.Event
	nextID   int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		bindings: make(map[domain.BindingKey]domain.Binding),
		nextID:   1,
	}
}

var (
	_ domain.BindingRepository = (*Store)(nil)
	_ domain.EventRepository   = (*Store)(nil)
)

// Get returns the adapter bound to key, or the zero address.
func (s *Store) Get(_ context.Context, key domain.BindingKey) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bindings[key].Adapter, nil
}

// WithTx runs fn against a private copy of the bindings and commits the copy
// only if fn succeeds. Transactions are serialized.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.BindingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{
		bindings: maps.Clone(s.bindings),
		nextID:   s.nextID,
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.bindings = tx.bindings
	s.events = append(s.events, tx.events...)
	s.nextID = tx.nextID
	return nil
}

// ListEvents returns journaled events matching filter, oldest first.
func (s *Store) ListEvents(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for _, e := range s.events {
		if !filter.Matches(e) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

type storeTx struct {
	bindings map[domain.BindingKey]domain.Binding
	events   []domain.Event
	nextID   int64
}

func (t *storeTx) Get(_ context.Context, key domain.BindingKey) (domain.Address, error) {
	return t.bindings[key].Adapter, nil
}

func (t *storeTx) Put(_ context.Context, b domain.Binding) error {
	t.bindings[b.Key()] = b
	return nil
}

func (t *storeTx) Delete(_ context.Context, key domain.BindingKey) error {
	delete(t.bindings, key)
	return nil
}

func (t *storeTx) AppendEvents(_ context.Context, events []*domain.Event) error {
	for _, e := range events {
		if e.GUID == "" {
			e.GUID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		e.ID = t.nextID
		t.nextID++
		t.events = append(t.events, *e)
	}
	return nil
}
