package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/crm-core/internal/api/shared"
	"github.com/phrazzld/crm-core/internal/platform/logger"
	"github.com/phrazzld/crm-core/internal/report"
)

// ReportService is the part of *report.Orchestrator the handler uses.
type ReportService interface {
	Start(ctx context.Context, kind report.Kind) (uuid.UUID, error)
	Job(id uuid.UUID) (report.Job, bool)
	Jobs() []report.Job
}

var _ ReportService = (*report.Orchestrator)(nil)

var acceptedMessages = map[report.Kind]string{
	report.KindClients:   "Generando informe de clientes en segundo plano...",
	report.KindInvoices:  "Generando informe de facturas en segundo plano...",
	report.KindAggregate: "Generando informe completo en segundo plano...",
}

// AuditLogger records operator actions. *auditlog.Service satisfies it.
type AuditLogger interface {
	LogAudit(ctx context.Context, msg string)
}

// ReportHandler serves /api/informes.
type ReportHandler struct {
	reports ReportService
	audit   AuditLogger
	logger  *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reports ReportService, logger *slog.Logger) *ReportHandler {
	if reports == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("report service cannot be nil for ReportHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		reports: reports,
		logger:  logger.With(slog.String("component", "report_handler")),
	}
}

// WithAuditLog records every accepted report job on a.
func (h *ReportHandler) WithAuditLog(a AuditLogger) *ReportHandler {
	h.audit = a
	return h
}

// MissingKind handles GET /api/informes without a report kind.
func (h *ReportHandler) MissingKind(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusBadRequest,
		"Tipo de informe requerido: /clientes, /facturas, /completo")
}

// StartReport handles GET /api/informes/{tipo}. The report is generated in
// the background and the response carries the job id to poll.
func (h *ReportHandler) StartReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	kind, err := report.ParseKind(chi.URLParam(r, "tipo"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	id, err := h.reports.Start(r.Context(), kind)
	if err != nil {
		status := MapErrorToStatusCode(err)
		msg := GetSafeErrorMessage(err)
		if status == http.StatusInternalServerError {
			msg = "Error al generar informe"
		}
		shared.RespondWithErrorAndLog(w, r, status, msg, err)
		return
	}

	log.Debug("report job accepted", "kind", string(kind), "job_id", id)
	if h.audit != nil {
		h.audit.LogAudit(r.Context(), fmt.Sprintf("%s %s - trabajo %s encolado", r.Method, r.URL.Path, id))
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, shared.MessageResponse{
		Message: acceptedMessages[kind],
		Status:  "processing",
		JobID:   id.String(),
	})
}

// GetJob handles GET /api/informes/jobs/{id}.
func (h *ReportHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "ID de trabajo no válido")
		return
	}

	job, ok := h.reports.Job(id)
	if !ok {
		HandleAPIError(w, r, fmt.Errorf("%w: %s", ErrJobNotFound, id), "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, job)
}

// ListJobs handles GET /api/informes/jobs.
func (h *ReportHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.reports.Jobs())
}
