package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// Recorder receives request outcomes. *stats.Registry satisfies it.
type Recorder interface {
	IncrementTotal()
	IncrementSuccess()
	IncrementFailure()
	AddResponseTime(ms int64)
}

// AsyncLogger writes application log lines in the background.
// *auditlog.Service satisfies it.
type AsyncLogger interface {
	LogAsync(ctx context.Context, msg string) error
	LogCriticalAsync(ctx context.Context, msg string)
}

// StatisticsConfig tunes the slow request log.
type StatisticsConfig struct {
	SlowThreshold     time.Duration
	SlowLogsPerSecond float64
}

// Statistics counts every request and its outcome, accumulates response
// times and logs slow requests. A panicking handler counts as a failure,
// is logged as critical and the panic continues up the chain.
func Statistics(rec Recorder, logs AsyncLogger, cfg StatisticsConfig) func(http.Handler) http.Handler {
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = time.Second
	}
	if cfg.SlowLogsPerSecond <= 0 {
		cfg.SlowLogsPerSecond = 5
	}
	slowLogs := rate.NewLimiter(rate.Limit(cfg.SlowLogsPerSecond), max(1, int(cfg.SlowLogsPerSecond)))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec.IncrementTotal()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				elapsed := time.Since(start)
				rec.AddResponseTime(elapsed.Milliseconds())
				if elapsed > cfg.SlowThreshold && slowLogs.Allow() {
					_ = logs.LogAsync(r.Context(), fmt.Sprintf("Petición lenta: %s %s - %dms",
						r.Method, r.URL.RequestURI(), elapsed.Milliseconds()))
				}
			}()

			defer func() {
				if p := recover(); p != nil {
					rec.IncrementFailure()
					logs.LogCriticalAsync(r.Context(), fmt.Sprintf("Exception en petición: %s %s - %v",
						r.Method, r.URL.RequestURI(), p))
					// ALLOW-PANIC: recovery belongs to the outer Recoverer
					panic(p)
				}
			}()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= 200 && status < 300 {
				rec.IncrementSuccess()
			} else {
				rec.IncrementFailure()
			}
		})
	}
}
