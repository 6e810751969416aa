package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrSchedulerStopped is returned when a job is registered after Stop.
var ErrSchedulerStopped = errors.New("scheduler is stopped")

// StartMode controls when the first firing of a periodic job happens.
type StartMode int

const (
	// StartDelayed waits one interval before the first firing.
	StartDelayed StartMode = iota
	// StartImmediately fires once at registration.
	StartImmediately
)

// Scheduler runs periodic jobs at a fixed rate on dedicated goroutines.
// Every job is cancellable on its own and all of them are joined by Stop.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a Scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With(slog.String("component", "scheduler")),
	}
}

// Every registers fn to run every interval. The returned cancel function
// stops this job only. A run in progress is never interrupted; the job
// observes cancellation through its context.
func (s *Scheduler) Every(
	name string,
	interval time.Duration,
	mode StartMode,
	fn func(ctx context.Context) error,
) (context.CancelFunc, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("job %q: interval must be positive, got %s", name, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, fmt.Errorf("%w: cannot register %q", ErrSchedulerStopped, name)
	}

	jobCtx, cancel := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go s.loop(jobCtx, name, interval, mode, fn)

	s.logger.Info("periodic job registered",
		"job", name,
		"interval", interval.String(),
		"immediate", mode == StartImmediately)
	return cancel, nil
}

// Stop cancels every job and waits for their goroutines to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(
	ctx context.Context,
	name string,
	interval time.Duration,
	mode StartMode,
	fn func(ctx context.Context) error,
) {
	defer s.wg.Done()

	if mode == StartImmediately {
		s.run(ctx, name, fn)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("periodic job cancelled", "job", name)
			return
		case <-ticker.C:
			// A tick and a cancellation can be ready together.
			if ctx.Err() != nil {
				return
			}
			s.run(ctx, name, fn)
		}
	}
}

func (s *Scheduler) run(ctx context.Context, name string, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("periodic job panicked", "job", name, "panic", r)
		}
	}()

	if err := fn(ctx); err != nil {
		s.logger.Error("periodic job failed", "job", name, "error", err)
	}
}
