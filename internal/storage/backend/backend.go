// Package backend opens the storage backend selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/budgetshare/internal/config"
	"github.com/mmynk/budgetshare/internal/storage"
	"github.com/mmynk/budgetshare/internal/storage/postgres"
	"github.com/mmynk/budgetshare/internal/storage/sqlite"
)

// Open returns the configured store with its migrations applied.
func Open(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		slog.Info("Storage initialized", "backend", config.BackendPostgres)
		return store, nil
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		slog.Info("Storage initialized", "backend", config.BackendSQLite, "database", cfg.DBPath)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
