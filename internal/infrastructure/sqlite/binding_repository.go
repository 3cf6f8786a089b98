package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/intreg/internal/log"
	"github.com/zjrosen/intreg/internal/registry/domain"
)

// queryer is the subset of *sql.DB and *sql.Tx used for reads.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// bindingRepository implements domain.BindingRepository using SQLite.
type bindingRepository struct {
	db *sql.DB
}

// newBindingRepository creates a new bindingRepository instance.
func newBindingRepository(db *sql.DB) *bindingRepository {
	return &bindingRepository{db: db}
}

// Ensure bindingRepository implements domain.BindingRepository.
var _ domain.BindingRepository = (*bindingRepository)(nil)

// Get returns the adapter bound to key, or the zero address.
func (r *bindingRepository) Get(ctx context.Context, key domain.BindingKey) (domain.Address, error) {
	return getAdapter(ctx, r.db, key)
}

// WithTx runs fn inside one SQL transaction. Any error from fn, a panic in
// fn, or a failed commit rolls back every write fn made.
func (r *bindingRepository) WithTx(ctx context.Context, fn func(tx domain.BindingTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// No-op once committed or rolled back.
	defer func() { _ = tx.Rollback() }()

	if err := fn(&bindingTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.ErrorErr(log.CatDB, "rollback failed", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close is a no-op; the connection is owned by DB.
func (r *bindingRepository) Close() error {
	return nil
}

func getAdapter(ctx context.Context, q queryer, key domain.BindingKey) (domain.Address, error) {
	var adapter string
	err := q.QueryRowContext(ctx,
		`SELECT adapter FROM integrations WHERE module = ? AND name_hash = ?`,
		key.Module.Hex(), key.NameHash.Hex(),
	).Scan(&adapter)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ZeroAddress, nil
	}
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("failed to get integration: %w", err)
	}

	addr, err := domain.ParseAddress(adapter)
	if err != nil {
		return domain.ZeroAddress, fmt.Errorf("corrupt integration row: %w", err)
	}
	return addr, nil
}

// bindingTx implements domain.BindingTx on a *sql.Tx.
type bindingTx struct {
	tx *sql.Tx
}

func (t *bindingTx) Get(ctx context.Context, key domain.BindingKey) (domain.Address, error) {
	return getAdapter(ctx, t.tx, key)
}

// Put upserts the binding row.
func (t *bindingTx) Put(ctx context.Context, b domain.Binding) error {
	model := toBindingModel(b, time.Now())
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO integrations (module, name_hash, adapter, name, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (module, name_hash) DO UPDATE SET
			adapter = excluded.adapter, name = excluded.name, updated_at = excluded.updated_at`,
		model.Module, model.NameHash, model.Adapter, model.Name, model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store integration: %w", err)
	}
	return nil
}

// Delete removes the binding row, returning the slot to the null identifier.
func (t *bindingTx) Delete(ctx context.Context, key domain.BindingKey) error {
	_, err := t.tx.ExecContext(ctx,
		`DELETE FROM integrations WHERE module = ? AND name_hash = ?`,
		key.Module.Hex(), key.NameHash.Hex(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete integration: %w", err)
	}
	return nil
}

// AppendEvents inserts events in order, assigning IDs and missing GUIDs.
func (t *bindingTx) AppendEvents(ctx context.Context, events []*domain.Event) error {
	for _, e := range events {
		if e.GUID == "" {
			e.GUID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		model := toEventModel(e)
		result, err := t.tx.ExecContext(ctx,
			`INSERT INTO integration_events (guid, kind, module, adapter, name, name_hash, caller, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			model.GUID, model.Kind, model.Module, model.Adapter, model.Name, model.NameHash,
			model.Caller, model.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to journal event: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		e.ID = id
	}
	return nil
}
