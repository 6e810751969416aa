package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/crm-core/internal/domain"
	"github.com/phrazzld/crm-core/internal/platform/logger"
	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/store"
	"github.com/phrazzld/crm-core/internal/task"
)

// Default orchestrator settings
const (
	DefaultRetention       = 7 * 24 * time.Hour
	DefaultCleanupInterval = 24 * time.Hour
)

// Dependencies are the collaborators of an Orchestrator. All but Now are
// required.
type Dependencies struct {
	Runner      *task.Runner
	Sessions    store.SessionFactory
	Clients     store.ClientStore
	Commercials store.CommercialStore
	Invoices    store.InvoiceStore

	// Now defaults to time.Now.
	Now func() time.Time
}

// Config controls where reports go and how long they are kept.
type Config struct {
	Dirs            *sink.DirResolver
	Retention       time.Duration
	CleanupInterval time.Duration

	// Delay is a simulated processing latency applied by every report task
	// before it queries the store.
	Delay time.Duration

	// JobHistory bounds the job tracker. Defaults to DefaultJobHistory.
	JobHistory int
}

// Orchestrator runs report generation on the shared task runner.
type Orchestrator struct {
	deps   Dependencies
	cfg    Config
	out    *sink.FileSink
	jobs   *jobTracker
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	joins  sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator. It panics on missing
// dependencies.
func NewOrchestrator(deps Dependencies, cfg Config, logger *slog.Logger) *Orchestrator {
	if deps.Runner == nil {
		panic("runner cannot be nil")
	}
	if deps.Sessions == nil || deps.Clients == nil || deps.Commercials == nil || deps.Invoices == nil {
		panic("sessions and stores cannot be nil")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.Dirs == nil {
		cfg.Dirs = sink.NewDirResolver("informes", sink.DefaultFallbackDir())
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		out:    sink.NewFileSink(cfg.Dirs),
		jobs:   newJobTracker(cfg.JobHistory),
		logger: logger.With(slog.String("component", "report_orchestrator")),
	}
}

// GenerateReport starts a single report of kind. It returns once the task
// is queued; the future resolves to a human readable summary naming the
// written file.
func (o *Orchestrator) GenerateReport(ctx context.Context, kind Kind) (*task.Future[string], error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}

	var fn func(ctx context.Context) (string, error)
	switch kind {
	case KindClients:
		fn = o.clientsReport
	case KindInvoices:
		fn = o.invoicesReport
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	f, err := task.Go(ctx, o.deps.Runner, "report-"+string(kind), fn)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule %s report: %w", kind, err)
	}
	o.jobs.add(kind, f, o.deps.Now())
	logger.FromContextOrDefault(ctx, o.logger).Info("report scheduled",
		"kind", string(kind),
		"job_id", f.ID())
	return f, nil
}

// Start schedules kind, which may also be KindAggregate, and returns the
// job id to poll with Job.
func (o *Orchestrator) Start(ctx context.Context, kind Kind) (uuid.UUID, error) {
	var (
		f   *task.Future[string]
		err error
	)
	if kind == KindAggregate {
		f, err = o.GenerateAggregateReport(ctx)
	} else {
		f, err = o.GenerateReport(ctx, kind)
	}
	if err != nil {
		return uuid.Nil, err
	}
	return f.ID(), nil
}

// GenerateAggregateReport counts clients, commercials and invoices in
// three independent tasks and writes one artifact once all of them have
// finished. A failed count shows up as an error line; the aggregate only
// fails when the artifact cannot be written.
func (o *Orchestrator) GenerateAggregateReport(ctx context.Context) (*task.Future[string], error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, ErrShutdown
	}

	branches := []struct {
		name  string
		label string
		count func(ctx context.Context) (int, error)
	}{
		{"aggregate-clients", "Clientes procesados", o.deps.Clients.Count},
		{"aggregate-commercials", "Comerciales procesados", o.deps.Commercials.Count},
		{"aggregate-invoices", "Facturas procesadas", o.deps.Invoices.Count},
	}

	// A rejected first branch fails the call with nothing queued. Once one
	// branch is queued, later rejections become failed sections so the join
	// still accounts for every queued branch.
	futures := make([]*task.Future[int], len(branches))
	rejected := make([]error, len(branches))
	for i, b := range branches {
		count := b.count
		f, err := task.Go(ctx, o.deps.Runner, b.name, func(ctx context.Context) (int, error) {
			return o.countInSession(ctx, count)
		})
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("failed to schedule %s: %w", b.name, err)
			}
			logger.FromContextOrDefault(ctx, o.logger).Warn("aggregate branch rejected",
				"branch", b.name,
				"error", err)
			rejected[i] = fmt.Errorf("failed to schedule %s: %w", b.name, err)
			continue
		}
		futures[i] = f
	}

	joined := task.Spawn(ctx, &o.joins, "report-aggregate", func(ctx context.Context) (string, error) {
		awaitables := make([]task.Awaitable, 0, len(futures))
		for _, f := range futures {
			if f != nil {
				awaitables = append(awaitables, f)
			}
		}
		if err := task.WaitAll(ctx, awaitables...); err != nil {
			return "", err
		}

		sections := make([]section, len(branches))
		for i, f := range futures {
			if f == nil {
				sections[i] = section{label: branches[i].label, err: rejected[i]}
				continue
			}
			n, err, _ := f.Result()
			sections[i] = section{label: branches[i].label, count: n, err: err}
		}

		now := o.deps.Now()
		path, err := o.out.Write(ctx, ArtifactName(KindAggregate, now), []byte(formatAggregate(sections, now)))
		if err != nil {
			logger.FromContextOrDefault(ctx, o.logger).Error("failed to write aggregate report", "error", err)
			return "", fmt.Errorf("failed to write aggregate report: %w", err)
		}
		logger.FromContextOrDefault(ctx, o.logger).Info("aggregate report generated", "path", path)
		return "Informe completo generado: " + path, nil
	})

	o.jobs.add(KindAggregate, joined, o.deps.Now())
	return joined, nil
}

// GenerateClientsReportDedicated builds the clients report on its own
// goroutine instead of the shared runner, so it runs even when the queue is
// full. The artifact is named informe_clientes_thread_<ts>.txt.
func (o *Orchestrator) GenerateClientsReportDedicated(ctx context.Context) (*task.Future[string], error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, ErrShutdown
	}

	f := task.Spawn(ctx, &o.joins, "report-clients-dedicated", func(ctx context.Context) (string, error) {
		return o.writeClientsReport(ctx, dedicatedClientsName(o.deps.Now()))
	})
	o.jobs.add(KindClients, f, o.deps.Now())
	logger.FromContextOrDefault(ctx, o.logger).Info("report scheduled",
		"kind", string(KindClients),
		"job_id", f.ID(),
		"dedicated", true)
	return f, nil
}

// CountClients counts clients on a background task.
func (o *Orchestrator) CountClients(ctx context.Context) (*task.Future[int], error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	return task.Go(ctx, o.deps.Runner, "count-clients", func(ctx context.Context) (int, error) {
		return o.countInSession(ctx, o.deps.Clients.Count)
	})
}

// Job returns the tracked state of a report job.
func (o *Orchestrator) Job(id uuid.UUID) (Job, bool) {
	return o.jobs.get(id)
}

// Jobs returns the tracked report jobs, newest first.
func (o *Orchestrator) Jobs() []Job {
	return o.jobs.list()
}

// Shutdown refuses new reports and waits for in-flight aggregate joins and
// dedicated reports.
// The runner must keep draining until Shutdown returns.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.joins.Wait()
	o.logger.Info("report orchestrator shut down")
}

func (o *Orchestrator) checkOpen() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrShutdown
	}
	return nil
}

func (o *Orchestrator) clientsReport(ctx context.Context) (string, error) {
	return o.writeClientsReport(ctx, ArtifactName(KindClients, o.deps.Now()))
}

func (o *Orchestrator) writeClientsReport(ctx context.Context, name string) (string, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	var clients []domain.Client
	err := o.inSession(ctx, func(ctx context.Context) error {
		var err error
		clients, err = o.deps.Clients.FindAll(ctx)
		return err
	})
	if err != nil {
		log.Error("clients report failed", "error", err)
		return "", fmt.Errorf("failed to load clients: %w", err)
	}

	path, err := o.out.Write(ctx, name, []byte(formatClients(clients, o.deps.Now())))
	if err != nil {
		log.Error("failed to write clients report", "error", err)
		return "", fmt.Errorf("failed to write clients report: %w", err)
	}

	log.Info("clients report generated", "path", path, "clients", len(clients))
	return "Informe generado: " + path, nil
}

func (o *Orchestrator) invoicesReport(ctx context.Context) (string, error) {
	log := logger.FromContextOrDefault(ctx, o.logger)

	var invoices []domain.Invoice
	err := o.inSession(ctx, func(ctx context.Context) error {
		var err error
		invoices, err = o.deps.Invoices.FindAll(ctx)
		return err
	})
	if err != nil {
		log.Error("invoices report failed", "error", err)
		return "", fmt.Errorf("failed to load invoices: %w", err)
	}

	now := o.deps.Now()
	path, err := o.out.Write(ctx, ArtifactName(KindInvoices, now), []byte(formatInvoices(invoices, now)))
	if err != nil {
		log.Error("failed to write invoices report", "error", err)
		return "", fmt.Errorf("failed to write invoices report: %w", err)
	}

	log.Info("invoices report generated", "path", path, "invoices", len(invoices))
	return "Informe de facturas generado: " + path, nil
}

func (o *Orchestrator) countInSession(ctx context.Context, count func(ctx context.Context) (int, error)) (int, error) {
	var n int
	err := o.inSession(ctx, func(ctx context.Context) error {
		var err error
		n, err = count(ctx)
		return err
	})
	return n, err
}

// inSession runs fn in a fresh session after the configured delay. Any
// session already bound to ctx is masked so tasks never borrow one.
func (o *Orchestrator) inSession(ctx context.Context, fn store.SessionFn) error {
	if o.cfg.Delay > 0 {
		timer := time.NewTimer(o.cfg.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return store.RunInSession(store.Unbind(ctx), o.deps.Sessions, fn)
}
