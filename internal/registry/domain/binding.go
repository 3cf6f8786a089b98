package domain

import "time"

// BindingKey addresses a single registry slot.
type BindingKey struct {
	Module   Address
	NameHash NameHash
}

// KeyFor builds the storage key for a module and plain adapter name.
func KeyFor(module Address, name string) BindingKey {
	return BindingKey{Module: module, NameHash: HashName(name)}
}

// CacheKey returns a string form of the key suitable for cache lookups.
func (k BindingKey) CacheKey() string {
	return k.Module.Hex() + ":" + k.NameHash.Hex()
}

// Binding is the stored association between a module, an adapter name and
// an adapter address. Adapter is never the null identifier for a stored binding.
type Binding struct {
	Module  Address
	Name    string
	Adapter Address
}

// Key returns the storage key of the binding.
func (b Binding) Key() BindingKey {
	return KeyFor(b.Module, b.Name)
}

// EventKind identifies a registry notification.
type EventKind string

const (
	// EventAddIntegration is emitted once per successful add.
	EventAddIntegration EventKind = "AddIntegration"

	// EventEditIntegration is emitted once per successful edit.
	EventEditIntegration EventKind = "EditIntegration"

	// EventRemoveIntegration is emitted once per successful remove and
	// carries the adapter address that was removed.
	EventRemoveIntegration EventKind = "RemoveIntegration"
)

// IsValid returns true if the kind is a recognized event kind.
func (k EventKind) IsValid() bool {
	switch k {
	case EventAddIntegration, EventEditIntegration, EventRemoveIntegration:
		return true
	default:
		return false
	}
}

// Event is a registry notification. Events are journaled in the same
// transaction as the state change that produced them.
type Event struct {
	// ID is assigned by the repository on append; zero before that.
	ID        int64
	GUID      string
	Kind      EventKind
	Module    Address
	Adapter   Address
	Name      string
	NameHash  NameHash
	Caller    Address
	CreatedAt time.Time
}

// EventFilter narrows event journal queries.
type EventFilter struct {
	// Module restricts results to one module. Nil means all modules.
	Module *Address

	// Kind restricts results to one event kind. Empty means all kinds.
	Kind EventKind

	// Limit caps the number of events returned. 0 means no limit.
	Limit int
}

// Matches reports whether e passes the filter, ignoring Limit.
func (f EventFilter) Matches(e Event) bool {
	if f.Module != nil && *f.Module != e.Module {
		return false
	}
	if f.Kind != "" && f.Kind != e.Kind {
		return false
	}
	return true
}
