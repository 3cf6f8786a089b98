// Package testutil provides fixtures for registry tests: well-known
// addresses, temp databases and a builder that seeds bindings.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/intreg/internal/infrastructure/sqlite"
)

// NewTestDB creates a migrated registry database in a temp dir.
// The database is closed when the test completes.
func NewTestDB(t testing.TB) *sqlite.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
