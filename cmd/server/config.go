package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/config"
	"github.com/phrazzld/crm-core/internal/platform/sqlstore"
)

// loadAppConfig loads the application configuration from environment
// variables or a config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_url", sqlstore.MaskURL(cfg.Database.URL),
		"stats_sink", cfg.Stats.Sink)
	return cfg, nil
}
