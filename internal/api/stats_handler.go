package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/crm-core/internal/api/shared"
	"github.com/phrazzld/crm-core/internal/platform/logger"
	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/stats"
)

// StatsService is the part of *stats.Registry the handler uses.
type StatsService interface {
	Snapshot() stats.Snapshot
	Reset()
	ExportAsync(ctx context.Context, name string)
}

var _ StatsService = (*stats.Registry)(nil)

// ExportRequest is the query of POST /api/estadisticas.
type ExportRequest struct {
	File string `validate:"omitempty,max=255,excludesall=/\\"`
}

// ExportResponse acknowledges a scheduled statistics export.
type ExportResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
}

// StatsHandler serves /api/estadisticas.
type StatsHandler struct {
	stats  StatsService
	audit  AuditLogger
	now    func() time.Time
	logger *slog.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(svc StatsService, logger *slog.Logger) *StatsHandler {
	if svc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stats service cannot be nil for StatsHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{
		stats:  svc,
		now:    time.Now,
		logger: logger.With(slog.String("component", "stats_handler")),
	}
}

// WithAuditLog records resets and exports on a.
func (h *StatsHandler) WithAuditLog(a AuditLogger) *StatsHandler {
	h.audit = a
	return h
}

// GetStatistics handles GET /api/estadisticas.
func (h *StatsHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.Snapshot())
}

// ResetStatistics handles DELETE /api/estadisticas.
func (h *StatsHandler) ResetStatistics(w http.ResponseWriter, r *http.Request) {
	h.stats.Reset()
	if h.audit != nil {
		h.audit.LogAudit(r.Context(), "DELETE /api/estadisticas - estadísticas reseteadas")
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Estadísticas reseteadas"})
}

// ExportStatistics handles POST /api/estadisticas?file=<name>. The export
// runs in the background; the response names the file it will write.
func (h *StatsHandler) ExportStatistics(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req := ExportRequest{File: r.URL.Query().Get("file")}
	if err := shared.ValidateRequest(&req); err != nil {
		log.Debug("invalid export request", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	name := req.File
	if name == "" {
		name = stats.DefaultExportName(h.now())
	}
	if err := sink.ValidateName(name); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.stats.ExportAsync(r.Context(), name)
	if h.audit != nil {
		h.audit.LogAudit(r.Context(), "POST /api/estadisticas - exportación solicitada: "+name)
	}
	log.Info("statistics export requested", "file", name)
	shared.RespondWithJSON(w, r, http.StatusAccepted, ExportResponse{
		Message: "Exportando estadísticas en segundo plano",
		File:    name,
	})
}
