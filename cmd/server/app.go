package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/crm-core/internal/auditlog"
	"github.com/phrazzld/crm-core/internal/config"
	"github.com/phrazzld/crm-core/internal/platform/sqlstore"
	"github.com/phrazzld/crm-core/internal/ratelimit"
	"github.com/phrazzld/crm-core/internal/report"
	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/stats"
	"github.com/phrazzld/crm-core/internal/store"
	"github.com/phrazzld/crm-core/internal/task"
)

// application holds the shared dependencies of the server and owns their
// shutdown.
type application struct {
	config *config.Config

	logger  *slog.Logger
	db      *sql.DB
	dialect sqlstore.Dialect
	redis   *redis.Client

	sessions    store.SessionFactory
	clients     store.ClientStore
	commercials store.CommercialStore
	invoices    store.InvoiceStore

	runner    *task.Runner
	scheduler *task.Scheduler
	limiter   *ratelimit.Limiter
	stats     *stats.Registry
	auditLog  *auditlog.Service
	reports   *report.Orchestrator
}

// newApplication wires the concurrency core over an open database. The
// runner is started and the periodic jobs are registered before it returns.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	dialect sqlstore.Dialect,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		dialect: dialect,
	}

	app.sessions = store.NewSQLSessionFactory(db, nil)
	app.clients = sqlstore.NewClientStore(dialect, logger)
	app.commercials = sqlstore.NewCommercialStore(dialect, logger)
	app.invoices = sqlstore.NewInvoiceStore(dialect, logger)

	app.runner = task.NewRunner(task.RunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	app.runner.Start()
	app.scheduler = task.NewScheduler(logger)

	dirs := sink.NewDirResolver(cfg.Reports.Dir, fallbackDir(cfg.Reports))

	exportSink, err := app.newStatsSink(ctx, dirs)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.stats = stats.NewRegistry(app.runner, exportSink, logger)
	app.auditLog = auditlog.New(cfg.Logs.File, app.runner, app.stats, logger)

	app.limiter = ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	})
	if _, err := app.limiter.StartSweeper(app.scheduler); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to start rate limit sweeper: %w", err)
	}

	app.reports = report.NewOrchestrator(report.Dependencies{
		Runner:      app.runner,
		Sessions:    app.sessions,
		Clients:     app.clients,
		Commercials: app.commercials,
		Invoices:    app.invoices,
	}, report.Config{
		Dirs:            dirs,
		Retention:       cfg.Reports.Retention,
		CleanupInterval: cfg.Reports.CleanupInterval,
	}, logger)
	if _, err := app.reports.StartCleanup(app.scheduler); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to start report cleanup: %w", err)
	}

	logger.Info("Application initialized successfully",
		"dialect", string(dialect),
		"workers", cfg.Task.WorkerCount,
		"queue_size", cfg.Task.QueueSize,
		"rate_limit", cfg.RateLimit.MaxRequests,
		"rate_window", cfg.RateLimit.Window.String())
	return app, nil
}

func fallbackDir(cfg config.ReportsConfig) string {
	if cfg.FallbackDir != "" {
		return cfg.FallbackDir
	}
	return sink.DefaultFallbackDir()
}

// newStatsSink returns the destination of statistics exports.
func (app *application) newStatsSink(ctx context.Context, dirs *sink.DirResolver) (sink.Sink, error) {
	switch app.config.Stats.Sink {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: app.config.Stats.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", app.config.Stats.RedisAddr, err)
		}
		app.redis = rdb

		opts := []sink.RedisOption{sink.WithTTL(app.config.Stats.RedisTTL)}
		if app.config.Stats.RedisKeyPrefix != "" {
			opts = append(opts, sink.WithPrefix(app.config.Stats.RedisKeyPrefix))
		}
		app.logger.Info("statistics exports go to redis", "addr", app.config.Stats.RedisAddr)
		return sink.NewRedisSink(rdb, opts...), nil
	case "file", "":
		return sink.NewFileSink(dirs), nil
	default:
		return nil, fmt.Errorf("unsupported statistics sink %q", app.config.Stats.Sink)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	app.auditLog.LogAudit(ctx, fmt.Sprintf("Servidor iniciado en el puerto %d", app.config.Server.Port))

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in dependency order: periodic jobs first,
// then the components that submit work, then the runner that executes it,
// and the stores last. Every step tolerates a partially built application.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.reports != nil {
		app.reports.Shutdown()
	}
	if app.auditLog != nil {
		app.auditLog.Shutdown()
	}
	if app.runner != nil {
		app.runner.Stop()
	}

	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("Error closing connections", "error", err)
	}

	app.logger.Info("Application shutdown completed")
}
