package presentation

import (
	"time"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

// LookupDTO is the result of an adapter lookup.
type LookupDTO struct {
	Module   string `json:"module"`
	Name     string `json:"name,omitempty"`
	NameHash string `json:"name_hash"`
	Adapter  string `json:"adapter"`
	Found    bool   `json:"found"`
}

// NewLookupDTO builds a lookup result. name is empty for hash lookups.
func NewLookupDTO(key domain.BindingKey, name string, adapter domain.Address) LookupDTO {
	return LookupDTO{
		Module:   key.Module.Hex(),
		Name:     name,
		NameHash: key.NameHash.Hex(),
		Adapter:  adapter.Hex(),
		Found:    !adapter.IsZero(),
	}
}

// ValidityDTO is the result of a validity check.
type ValidityDTO struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Valid  bool   `json:"valid"`
}

// HashDTO pairs a name with its hash.
type HashDTO struct {
	Name     string `json:"name"`
	NameHash string `json:"name_hash"`
}

// MutationDTO reports a committed mutation.
type MutationDTO struct {
	Operation string `json:"operation"`
	Applied   int    `json:"applied"`
}

// EventDTO is a journaled registry event.
type EventDTO struct {
	ID        int64     `json:"id"`
	GUID      string    `json:"guid"`
	Kind      string    `json:"kind"`
	Module    string    `json:"module"`
	Adapter   string    `json:"adapter"`
	Name      string    `json:"name"`
	NameHash  string    `json:"name_hash"`
	Caller    string    `json:"caller"`
	CreatedAt time.Time `json:"created_at"`
}

// FromDomainEvent converts a domain event to a DTO.
func FromDomainEvent(e domain.Event) EventDTO {
	return EventDTO{
		ID:        e.ID,
		GUID:      e.GUID,
		Kind:      string(e.Kind),
		Module:    e.Module.Hex(),
		Adapter:   e.Adapter.Hex(),
		Name:      e.Name,
		NameHash:  e.NameHash.Hex(),
		Caller:    e.Caller.Hex(),
		CreatedAt: e.CreatedAt.UTC(),
	}
}

// FromDomainEvents converts a slice of domain events to DTOs
func FromDomainEvents(events []domain.Event) []EventDTO {
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = FromDomainEvent(e)
	}
	return dtos
}

// ErrorDTO describes a rejected operation.
type ErrorDTO struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Index *int   `json:"index,omitempty"` // failing batch element
}

// FromError converts err to a DTO, keeping the registry code and batch index if present.
func FromError(err error) ErrorDTO {
	dto := ErrorDTO{
		Error: err.Error(),
		Code:  domain.CodeOf(err),
		Kind:  string(domain.KindOf(err)),
	}
	if index, ok := domain.BatchIndexOf(err); ok {
		dto.Index = &index
	}
	return dto
}
