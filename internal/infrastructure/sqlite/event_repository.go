package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zjrosen/intreg/internal/registry/domain"
)

const eventColumns = `id, guid, kind, module, adapter, name, name_hash, caller, created_at`

// eventRepository implements domain.EventRepository using SQLite.
type eventRepository struct {
	db *sql.DB
}

func newEventRepository(db *sql.DB) *eventRepository {
	return &eventRepository{db: db}
}

var _ domain.EventRepository = (*eventRepository)(nil)

func scanEvent(scanner interface{ Scan(...any) error }) (*EventModel, error) {
	var model EventModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.Kind, &model.Module, &model.Adapter,
		&model.Name, &model.NameHash, &model.Caller, &model.CreatedAt,
	)
	return &model, err
}

// ListEvents retrieves journaled events matching filter, oldest first.
func (r *eventRepository) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM integration_events WHERE 1 = 1`
	var args []any

	if filter.Module != nil {
		query += ` AND module = ?`
		args = append(args, filter.Module.Hex())
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []domain.Event
	for rows.Next() {
		model, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
