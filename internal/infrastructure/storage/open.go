package storage

import (
	"context"
	"fmt"

	"github.com/eshaffer321/energysplit/internal/infrastructure/config"
)

// Open returns the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StorageConfig) (Repository, error) {
	switch cfg.Driver {
	case "", config.DriverSQLite:
		return NewSQLiteStorage(cfg.DatabasePath)
	case config.DriverPostgres:
		return NewPostgresStorage(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
