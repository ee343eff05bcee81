// Package testutil provides shared test helpers for setting up stores
// and services.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/fragments/internal/fragmentservice"
	"github.com/starford/fragments/internal/storage"
)

// Gateway creates a memory-backed storage gateway.
func Gateway(t *testing.T) *storage.Gateway {
	t.Helper()
	return storage.NewGateway(storage.NewMemoryMetadata(), storage.NewMemoryData())
}

// Service creates a fragment service over in-memory stores.
func Service(t *testing.T) *fragmentservice.Service {
	t.Helper()
	return fragmentservice.NewService(Gateway(t))
}

// SQLite creates a temporary SQLite metadata store that is automatically
// cleaned up.
func SQLite(t *testing.T) *storage.SQLiteMetadata {
	t.Helper()
	dbFile, err := os.CreateTemp("", "fragments-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
