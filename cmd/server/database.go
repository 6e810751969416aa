package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/config"
	"github.com/phrazzld/crm-core/internal/platform/sqlstore"
)

// setupAppDatabase opens the configured database and, when enabled, brings
// its schema up to date.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, sqlstore.Dialect, error) {
	db, dialect, err := sqlstore.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Database.MigrateOnStart {
		if err := sqlstore.Migrate(ctx, db, dialect, logger); err != nil {
			_ = db.Close()
			return nil, "", err
		}
	}
	return db, dialect, nil
}
