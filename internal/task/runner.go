package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue.
	// Submissions beyond this bound are rejected with ErrQueueFull.
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 5,
		QueueSize:   100,
	}
}

// RunnerStats is a point-in-time view of runner activity.
type RunnerStats struct {
	Workers   int
	Queued    int
	Submitted int64
	Completed int64
	Failed    int64
	Rejected  int64
}

// Runner accepts background work and executes it on a bounded worker pool.
type Runner struct {
	queue  *TaskQueue
	pool   *WorkerPool
	logger *slog.Logger

	stopOnce sync.Once

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

// NewRunner creates a new Runner. Invalid config values fall back to defaults.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "task_runner"))

	if config.QueueSize <= 0 {
		logger.Warn("invalid queue size specified, using default",
			"specified_size", config.QueueSize,
			"default_size", DefaultRunnerConfig().QueueSize)
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	r := &Runner{
		queue:  queue,
		pool:   pool,
		logger: logger,
	}
	pool.SetErrorHandler(func(task Task, err error) {
		// Default error handler just logs the error
		logger.Error("task execution failed",
			"task_id", task.ID(),
			"task_name", task.Name(),
			"error", err)
	})
	pool.onFinish = r.record
	return r
}

// SetErrorHandler allows setting a custom error handler function.
// Must be called before Start.
func (r *Runner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Start launches the worker goroutines.
func (r *Runner) Start() {
	r.pool.Start()
}

// Enqueue submits an arbitrary Task.
func (r *Runner) Enqueue(task Task) error {
	if err := r.queue.Enqueue(task); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return fmt.Errorf("%w: cannot accept %q", ErrRunnerStopped, task.Name())
		}
		r.rejected.Add(1)
		r.logger.Warn("task rejected", "task_name", task.Name(), "error", err)
		return err
	}
	r.submitted.Add(1)
	return nil
}

// Submit schedules fn for execution and returns immediately. Failures are
// reported to the error handler only.
func (r *Runner) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	f := NewFuture(ctx, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return r.Enqueue(f)
}

// Go schedules a value-producing function and returns its Future.
func Go[T any](ctx context.Context, r *Runner, name string, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	f := NewFuture(ctx, name, fn)
	if err := r.Enqueue(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Stop stops accepting work, lets the workers drain everything already
// queued, and waits for them. It is safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info("stopping task runner", "queued", r.queue.Len())
		r.queue.Close()
		r.pool.Start()
		r.pool.Stop()
		r.logger.Info("task runner stopped",
			"completed", r.completed.Load(),
			"failed", r.failed.Load())
	})
}

// Stopped reports whether Stop has been called.
func (r *Runner) Stopped() bool {
	return r.queue.Closed()
}

// Stats returns the current runner counters.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Workers:   r.pool.WorkerCount(),
		Queued:    r.queue.Len(),
		Submitted: r.submitted.Load(),
		Completed: r.completed.Load(),
		Failed:    r.failed.Load(),
		Rejected:  r.rejected.Load(),
	}
}

func (r *Runner) record(_ Task, err error) {
	if err != nil {
		r.failed.Add(1)
		return
	}
	r.completed.Add(1)
}
