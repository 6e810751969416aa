package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/config"
	"github.com/phrazzld/crm-core/internal/platform/logger"
)

// setupAppLogger configures the process-wide JSON logger.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return l, nil
}
