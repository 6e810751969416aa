package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Awaitable is the non-generic view of a Future used by WaitAll.
type Awaitable interface {
	ID() uuid.UUID
	Done() <-chan struct{}
	Status() TaskStatus
}

// Future is a deferred computation executed on a Runner. It completes
// exactly once, either with a value or with an error.
type Future[T any] struct {
	id   uuid.UUID
	name string
	ctx  context.Context
	fn   func(ctx context.Context) (T, error)

	mu     sync.Mutex
	status TaskStatus
	value  T
	err    error
	done   chan struct{}
}

var _ Task = (*Future[int])(nil)

// NewFuture creates a future that has not been scheduled yet. Hand it to
// Runner.Enqueue or run it with Spawn.
func NewFuture[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) *Future[T] {
	return &Future[T]{
		id:     uuid.New(),
		name:   name,
		ctx:    context.WithoutCancel(ctx),
		fn:     fn,
		status: TaskStatusSubmitted,
		done:   make(chan struct{}),
	}
}

// Spawn runs fn on a dedicated goroutine, outside any worker pool, and
// returns its Future. Work that blocks on other futures belongs here so it
// never holds a pool worker while waiting. When wg is non-nil it covers the
// goroutine until the future has completed.
func Spawn[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(ctx context.Context) (T, error),
) *Future[T] {
	f := NewFuture(ctx, name, fn)
	if wg != nil {
		wg.Add(1)
	}
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		_ = f.Execute(ctx)
	}()
	return f
}

// ID returns the future's unique identifier
func (f *Future[T]) ID() uuid.UUID {
	return f.id
}

// Name returns the label the future was submitted with
func (f *Future[T]) Name() string {
	return f.name
}

// Status returns the current lifecycle state
func (f *Future[T]) Status() TaskStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Done returns a channel that is closed once the future has completed.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking. The final return value is
// false while the future is still pending.
func (f *Future[T]) Result() (T, error, bool) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Execute runs the wrapped function. It uses the values of the context the
// future was submitted with; cancelling the submitter does not abort it.
func (f *Future[T]) Execute(_ context.Context) (err error) {
	f.mu.Lock()
	if f.status != TaskStatusSubmitted {
		f.mu.Unlock()
		return fmt.Errorf("future %s already executed", f.id)
	}
	f.status = TaskStatusRunning
	f.mu.Unlock()

	var value T
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			var zero T
			f.complete(zero, err)
			return
		}
		f.complete(value, err)
	}()

	value, err = f.fn(f.ctx)
	return err
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	f.value = value
	f.err = err
	if err != nil {
		f.status = TaskStatusFailed
	} else {
		f.status = TaskStatusCompleted
	}
	f.mu.Unlock()
	close(f.done)
}

// WaitAll blocks until every future has completed, whatever its outcome.
// It never returns early because one of them failed; only ctx can cut the
// wait short.
func WaitAll(ctx context.Context, futures ...Awaitable) error {
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
