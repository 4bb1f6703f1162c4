package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/venuealloc/internal/db"
)

// NewTestDB opens a migrated SQLite file in t.TempDir with the production
// pool settings: WAL, immediate write transactions and several connections.
// The concurrent allocation tests need that pool; :memory: would pin it to
// one connection.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "venuealloc_test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW wraps database in the same UnitOfWork the services use.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
