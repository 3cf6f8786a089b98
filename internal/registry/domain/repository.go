package domain

import "context"

// Controller is the external source of truth for module validity.
// It is queried synchronously on every add and edit and never cached.
type Controller interface {
	IsModule(ctx context.Context, module Address) (bool, error)
}

// Authorizer decides whether caller may mutate the registry.
// Implementations return ErrNotOwner (possibly wrapped) to reject.
type Authorizer interface {
	Authorize(ctx context.Context, caller Address) error
}

// BindingRepository defines the persistence interface for registry bindings.
// Implementations may use SQLite, in-memory storage, or other backends.
type BindingRepository interface {
	// Get returns the adapter bound to key, or ZeroAddress if the key is unbound.
	Get(ctx context.Context, key BindingKey) (Address, error)

	// WithTx runs fn inside a single atomic unit. If fn returns an error,
	// nothing fn wrote is kept, including journaled events.
	WithTx(ctx context.Context, fn func(tx BindingTx) error) error

	// Close releases any resources held by the repository.
	Close() error
}

// BindingTx is the view of the store inside WithTx.
// Reads observe writes made earlier in the same transaction.
type BindingTx interface {
	Get(ctx context.Context, key BindingKey) (Address, error)

	// Put stores b. Callers guarantee b.Adapter is not the null identifier.
	Put(ctx context.Context, b Binding) error

	// Delete resets key to the null identifier.
	Delete(ctx context.Context, key BindingKey) error

	// AppendEvents journals events in order and assigns their IDs.
	AppendEvents(ctx context.Context, events []*Event) error
}

// EventRepository exposes the audit journal.
type EventRepository interface {
	// ListEvents returns journaled events matching filter, oldest first.
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}
