package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// SQLiteStorage persists the working set and results in a local SQLite file.
// It implements the Repository interface.
type SQLiteStorage struct {
	sqlStore
}

// Compile-time check that SQLiteStorage implements Repository
var _ Repository = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (or creates) the database at dbPath and runs all
// pending migrations
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrate(context.Background(), db, goose.DialectSQLite3, "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStorage{sqlStore: sqlStore{db: db}}, nil
}
