package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/crm-core/internal/api"
	apiMiddleware "github.com/phrazzld/crm-core/internal/api/middleware"
)

// setupRouter builds the router. Every /api request passes admission
// control and is counted in the statistics registry.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	statsHandler := api.NewStatsHandler(app.stats, app.logger).WithAuditLog(app.auditLog)
	reportHandler := api.NewReportHandler(app.reports, app.logger).WithAuditLog(app.auditLog)
	healthHandler := api.NewHealthHandler(app.db, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(apiMiddleware.Statistics(app.stats, app.auditLog, apiMiddleware.StatisticsConfig{
			SlowThreshold:     app.config.Logs.SlowRequestThreshold,
			SlowLogsPerSecond: app.config.Logs.SlowLogsPerSecond,
		}))
		r.Use(apiMiddleware.RateLimit(app.limiter, apiMiddleware.KeyConfig{
			Header:            app.config.RateLimit.KeyHeader,
			TrustForwardedFor: app.config.RateLimit.TrustForwardedFor,
		}))

		r.Get("/estadisticas", statsHandler.GetStatistics)
		r.Delete("/estadisticas", statsHandler.ResetStatistics)
		r.Post("/estadisticas", statsHandler.ExportStatistics)

		r.Get("/informes", reportHandler.MissingKind)
		r.Get("/informes/", reportHandler.MissingKind)
		r.Get("/informes/jobs", reportHandler.ListJobs)
		r.Get("/informes/jobs/{id}", reportHandler.GetJob)
		r.Get("/informes/{tipo}", reportHandler.StartReport)
	})

	r.Get("/health", healthHandler.Health)

	return r
}
