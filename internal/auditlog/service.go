package auditlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/crm-core/internal/stats"
	"github.com/phrazzld/crm-core/internal/task"
)

// DefaultFile is the log file used when none is configured.
const DefaultFile = "application.log"

const lineTimestamp = "2006-01-02 15:04:05"

// Line prefixes
const (
	CriticalPrefix = "[CRITICAL] "
	AuditPrefix    = "[AUDIT] "
)

// Counter receives one increment per written line. *stats.Registry
// satisfies it.
type Counter interface {
	IncrementLogsWritten()
}

var _ Counter = (*stats.Registry)(nil)

// Service writes log lines in the background.
type Service struct {
	path    string
	runner  stats.Submitter
	counter Counter
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	written atomic.Int64

	dedicated sync.WaitGroup
	closeMu   sync.Mutex
	closed    bool
}

// New creates a Service appending to path. counter may be nil.
func New(path string, runner stats.Submitter, counter Counter, logger *slog.Logger) *Service {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if path == "" {
		path = DefaultFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		path:    path,
		runner:  runner,
		counter: counter,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "auditlog")),
	}
}

// Path returns the file the service appends to.
func (s *Service) Path() string {
	return s.path
}

// Written returns how many lines this service has written.
func (s *Service) Written() int64 {
	return s.written.Load()
}

// LogAsync queues msg on the task runner. The error reports only whether
// the line could be queued.
func (s *Service) LogAsync(ctx context.Context, msg string) error {
	err := s.runner.Submit(ctx, "log-write", func(ctx context.Context) error {
		return s.write(msg)
	})
	if err != nil {
		s.logger.Warn("log line dropped", "error", err)
	}
	return err
}

// LogCriticalAsync writes msg with the critical prefix on a dedicated
// goroutine.
func (s *Service) LogCriticalAsync(ctx context.Context, msg string) {
	s.dedicatedWrite(ctx, "log-critical", CriticalPrefix+msg)
}

// LogAudit writes msg with the audit prefix on a dedicated goroutine.
func (s *Service) LogAudit(ctx context.Context, msg string) {
	s.dedicatedWrite(ctx, "log-audit", AuditPrefix+msg)
}

// Shutdown waits for dedicated writes in flight. Lines logged afterwards
// through the dedicated paths are written synchronously.
func (s *Service) Shutdown() {
	s.closeMu.Lock()
	s.closed = true
	s.closeMu.Unlock()

	s.dedicated.Wait()
	s.logger.Info("log service shut down", "lines_written", s.written.Load())
}

func (s *Service) dedicatedWrite(ctx context.Context, name, line string) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		if err := s.write(line); err != nil {
			s.logger.Error("failed to write log line", "error", err)
		}
		return
	}

	task.Spawn(ctx, &s.dedicated, name, func(context.Context) (struct{}, error) {
		if err := s.write(line); err != nil {
			s.logger.Error("failed to write log line", "task_name", name, "error", err)
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

// write appends one timestamped line. Writers are serialized so lines
// never interleave.
func (s *Service) write(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	line := fmt.Sprintf("[%s] %s\n", s.now().Format(lineTimestamp), msg)
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	s.written.Add(1)
	if s.counter != nil {
		s.counter.IncrementLogsWritten()
	}
	return nil
}
