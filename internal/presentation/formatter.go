// Package presentation renders registry results as JSON for the CLI.
package presentation

import (
	"encoding/json"
	"io"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatEvents formats journaled events as a JSON array. An empty journal
// renders as [] rather than null.
func (f *Formatter) FormatEvents(events []EventDTO) error {
	if events == nil {
		events = []EventDTO{}
	}
	return f.Format(events)
}

// Format writes any DTO as indented JSON.
func (f *Formatter) Format(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
