// Package databasetest provides throwaway SQLite databases for tests.
package databasetest

import (
	"path/filepath"
	"testing"

	"catalogsync/internal/database"
	"catalogsync/internal/logger"

	"gorm.io/gorm"
)

// New opens a migrated, file-backed SQLite database that lives for the
// duration of the test.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "catalog.db")
	db, err := database.New("sqlite://"+path, logger.Nop(), false)
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		tb.Fatalf("unwrap test database: %v", err)
	}
	// SQLite allows a single writer; one connection keeps tests deterministic.
	sqlDB.SetMaxOpenConns(1)

	tb.Cleanup(func() { _ = db.Close() })
	return db.DB
}
