package sqlite

import (
	"fmt"
	"time"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

// BindingModel represents the database row for the integrations table.
// Identifiers are stored as 0x prefixed hex so the table is readable with
// the sqlite3 shell.
type BindingModel struct {
	Module    string
	NameHash  string
	Adapter   string
	Name      string
	UpdatedAt int64 // Unix milliseconds
}

// toBindingModel converts a domain Binding to a database BindingModel.
func toBindingModel(b domain.Binding, now time.Time) *BindingModel {
	key := b.Key()
	return &BindingModel{
		Module:    key.Module.Hex(),
		NameHash:  key.NameHash.Hex(),
		Adapter:   b.Adapter.Hex(),
		Name:      b.Name,
		UpdatedAt: now.UnixMilli(),
	}
}

// EventModel represents the database row for the integration_events table.
type EventModel struct {
	ID        int64
	GUID      string
	Kind      string
	Module    string
	Adapter   string
	Name      string
	NameHash  string
	Caller    string
	CreatedAt int64 // Unix milliseconds
}

// toEventModel converts a domain Event to a database EventModel.
func toEventModel(e *domain.Event) *EventModel {
	return &EventModel{
		ID:        e.ID,
		GUID:      e.GUID,
		Kind:      string(e.Kind),
		Module:    e.Module.Hex(),
		Adapter:   e.Adapter.Hex(),
		Name:      e.Name,
		NameHash:  e.NameHash.Hex(),
		Caller:    e.Caller.Hex(),
		CreatedAt: e.CreatedAt.UnixMilli(),
	}
}

// toDomain converts a database EventModel to a domain Event.
func (m *EventModel) toDomain() (domain.Event, error) {
	module, err := domain.ParseAddress(m.Module)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %d module: %w", m.ID, err)
	}
	adapter, err := domain.ParseAddress(m.Adapter)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %d adapter: %w", m.ID, err)
	}
	caller, err := domain.ParseAddress(m.Caller)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %d caller: %w", m.ID, err)
	}
	nameHash, err := domain.ParseNameHash(m.NameHash)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %d name hash: %w", m.ID, err)
	}
	return domain.Event{
		ID:        m.ID,
		GUID:      m.GUID,
		Kind:      domain.EventKind(m.Kind),
		Module:    module,
		Adapter:   adapter,
		Name:      m.Name,
		NameHash:  nameHash,
		Caller:    caller,
		CreatedAt: time.UnixMilli(m.CreatedAt),
	}, nil
}
