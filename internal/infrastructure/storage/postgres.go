package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStorage persists the working set and results in PostgreSQL through
// the pgx database/sql driver. It implements the Repository interface.
type PostgresStorage struct {
	sqlStore
}

// Compile-time check that PostgresStorage implements Repository
var _ Repository = (*PostgresStorage)(nil)

// NewPostgresStorage connects to dsn, verifies the connection and runs all
// pending migrations
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := migrate(ctx, db, goose.DialectPostgres, "migrations/postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresStorage{sqlStore: sqlStore{db: db, numbered: true}}, nil
}
