package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/crm-core/internal/task"
)

const (
	// DefaultMaxRequests is the per-window quota when none is configured.
	DefaultMaxRequests = 100
	// DefaultWindow is the window length when none is configured.
	DefaultWindow = time.Minute
)

// Config sets the quota of a Limiter. Zero values take the defaults.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter admits at most MaxRequests per key within each window.
type Limiter struct {
	max      int64
	window   time.Duration
	now      func() time.Time
	counters sync.Map // string -> *counter
}

type counter struct {
	mu          sync.Mutex
	count       atomic.Int64
	windowStart atomic.Int64 // unix nanoseconds
}

// New creates a Limiter.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	l := &Limiter{
		max:    int64(cfg.MaxRequests),
		window: cfg.Window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the per-window quota.
func (l *Limiter) Limit() int {
	return int(l.max)
}

// Window returns the window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Allow records one request for key and reports whether it is within quota.
// Denied requests still count toward the current window.
func (l *Limiter) Allow(key string) bool {
	now := l.now().UnixNano()
	c := l.counterFor(key, now)

	if now-c.windowStart.Load() > int64(l.window) {
		c.mu.Lock()
		// Only the first goroutine past the boundary resets the window.
		if now-c.windowStart.Load() > int64(l.window) {
			c.count.Store(0)
			c.windowStart.Store(now)
		}
		c.mu.Unlock()
	}

	return c.count.Add(1) <= l.max
}

// Remaining returns the quota left for key in its current window. Unknown
// keys report the full quota. It never blocks and never creates a counter.
// A window that has expired is only reset by the next Allow, so until then
// Remaining reports the quota left in the expired window.
func (l *Limiter) Remaining(key string) int {
	v, ok := l.counters.Load(key)
	if !ok {
		return int(l.max)
	}
	left := l.max - v.(*counter).count.Load()
	if left < 0 {
		return 0
	}
	return int(left)
}

// Clear drops every counter. Keys reappear lazily on their next request.
func (l *Limiter) Clear() {
	l.counters.Clear()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	n := 0
	l.counters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// StartSweeper clears the counter map once per window on s. The sweep stops
// when s is stopped or the returned cancel function is called.
func (l *Limiter) StartSweeper(s *task.Scheduler) (context.CancelFunc, error) {
	return s.Every("ratelimit-sweep", l.window, task.StartDelayed, func(ctx context.Context) error {
		l.Clear()
		return nil
	})
}

func (l *Limiter) counterFor(key string, now int64) *counter {
	if v, ok := l.counters.Load(key); ok {
		return v.(*counter)
	}
	fresh := &counter{}
	fresh.windowStart.Store(now)
	v, _ := l.counters.LoadOrStore(key, fresh)
	return v.(*counter)
}
