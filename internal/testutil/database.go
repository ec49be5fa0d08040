// Package testutil provides test utilities for the veridian project: isolated
// databases, watchlist fixtures and identity record builders.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
	"github.com/veridian-labs/veridian/internal/storage"
)

// TestDB wraps a migrated, isolated SQLite database for one test.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a fresh SQLite database in the test's temp directory,
// runs migrations and registers cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "veridian.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedWatchlist caches the snapshot's entries under its source name.
func (db *TestDB) SeedWatchlist(snapshot *model.WatchlistSnapshot) {
	db.t.Helper()

	if err := db.Storage.ReplaceWatchlist(context.Background(), snapshot.Source, snapshot.Entries); err != nil {
		db.t.Fatalf("failed to seed watchlist: %v", err)
	}
}
