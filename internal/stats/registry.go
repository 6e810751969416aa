package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/task"
)

// Snapshot is a point-in-time copy of the registry counters.
type Snapshot struct {
	TotalRequests         int64   `json:"totalRequests"`
	SuccessfulRequests    int64   `json:"successfulRequests"`
	FailedRequests        int64   `json:"failedRequests"`
	LogsWritten           int64   `json:"logsWritten"`
	AverageResponseTimeMs float64 `json:"averageResponseTime"`
}

// Submitter runs fire-and-forget background work. *task.Runner satisfies it.
type Submitter interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

var _ Submitter = (*task.Runner)(nil)

// Registry holds process-wide API counters. Each counter is updated
// atomically on its own; a Snapshot is not a consistent cut across them.
type Registry struct {
	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64
	logsWritten        atomic.Int64
	totalResponseTime  atomic.Int64

	runner Submitter
	sink   sink.Sink
	now    func() time.Time
	logger *slog.Logger
}

// NewRegistry creates a Registry. runner and out may be nil, in which case
// ExportAsync only logs that no export destination is configured.
func NewRegistry(runner Submitter, out sink.Sink, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		runner: runner,
		sink:   out,
		now:    time.Now,
		logger: logger.With(slog.String("component", "stats")),
	}
}

// IncrementTotal counts one received request.
func (r *Registry) IncrementTotal() { r.totalRequests.Add(1) }

// IncrementSuccess counts one request answered with a 2xx status.
func (r *Registry) IncrementSuccess() { r.successfulRequests.Add(1) }

// IncrementFailure counts one failed request.
func (r *Registry) IncrementFailure() { r.failedRequests.Add(1) }

// IncrementLogsWritten counts one line appended to the application log.
func (r *Registry) IncrementLogsWritten() { r.logsWritten.Add(1) }

// AddResponseTime accumulates the handling time of one request.
func (r *Registry) AddResponseTime(ms int64) { r.totalResponseTime.Add(ms) }

// Snapshot reads every counter.
func (r *Registry) Snapshot() Snapshot {
	total := r.totalRequests.Load()
	responseTime := r.totalResponseTime.Load()

	var avg float64
	if total > 0 {
		avg = float64(responseTime) / float64(total)
	}

	return Snapshot{
		TotalRequests:         total,
		SuccessfulRequests:    r.successfulRequests.Load(),
		FailedRequests:        r.failedRequests.Load(),
		LogsWritten:           r.logsWritten.Load(),
		AverageResponseTimeMs: avg,
	}
}

// Reset zeroes every counter. Increments racing a reset may survive it.
func (r *Registry) Reset() {
	r.totalRequests.Store(0)
	r.successfulRequests.Store(0)
	r.failedRequests.Store(0)
	r.logsWritten.Store(0)
	r.totalResponseTime.Store(0)
	r.logger.Info("statistics reset")
}

// ExportAsync writes the current snapshot to the sink on a background
// worker and returns at once. An empty name selects DefaultExportName.
// Failures are only logged.
func (r *Registry) ExportAsync(ctx context.Context, name string) {
	if name == "" {
		name = DefaultExportName(r.now())
	}
	log := r.logger.With("export_name", name)

	if r.runner == nil || r.sink == nil {
		log.Warn("statistics export skipped, no destination configured")
		return
	}

	snap := r.Snapshot()
	at := r.now()
	err := r.runner.Submit(ctx, "stats-export", func(ctx context.Context) error {
		location, err := r.sink.Write(ctx, name, []byte(FormatSnapshot(snap, at)))
		if err != nil {
			log.Error("statistics export failed", "error", err)
			return nil
		}
		log.Info("statistics exported", "location", location)
		return nil
	})
	if err != nil {
		log.Error("statistics export not scheduled", "error", err)
	}
}

// DefaultExportName returns estadisticas_<unix millis>.txt.
func DefaultExportName(now time.Time) string {
	return fmt.Sprintf("estadisticas_%d.txt", now.UnixMilli())
}

// FormatSnapshot renders snap as the plain-text export document.
func FormatSnapshot(snap Snapshot, at time.Time) string {
	var b strings.Builder
	b.WriteString("=== Estadísticas API ===\n")
	fmt.Fprintf(&b, "Fecha: %s\n\n", at.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total: %d\n", snap.TotalRequests)
	fmt.Fprintf(&b, "OK: %d\n", snap.SuccessfulRequests)
	fmt.Fprintf(&b, "Errores: %d\n", snap.FailedRequests)
	fmt.Fprintf(&b, "Logs: %d\n", snap.LogsWritten)
	fmt.Fprintf(&b, "Promedio respuesta: %.2f ms\n", snap.AverageResponseTimeMs)
	return b.String()
}
