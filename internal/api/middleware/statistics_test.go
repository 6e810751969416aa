package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/crm-core/internal/stats"
)

type recordedLogs struct {
	mu       sync.Mutex
	lines    []string
	critical []string
}

func (l *recordedLogs) LogAsync(_ context.Context, msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, msg)
	return nil
}

func (l *recordedLogs) LogCriticalAsync(_ context.Context, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.critical = append(l.critical, msg)
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestStatistics_CountsOutcomes(t *testing.T) {
	registry := stats.NewRegistry(nil, nil, nil)
	logs := &recordedLogs{}
	mw := Statistics(registry, logs, StatisticsConfig{})

	serve(mw(http.HandlerFunc(okHandler)), http.MethodGet, "/api/a")
	serve(mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	})), http.MethodGet, "/api/b")
	serve(mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})), http.MethodGet, "/api/c")
	serve(mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})), http.MethodGet, "/api/d")

	snap := registry.Snapshot()
	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.SuccessfulRequests)
	assert.Equal(t, int64(2), snap.FailedRequests)
	assert.Empty(t, logs.lines)
}

func TestStatistics_PanicCountsAsFailureAndPropagates(t *testing.T) {
	registry := stats.NewRegistry(nil, nil, nil)
	logs := &recordedLogs{}
	handler := Statistics(registry, logs, StatisticsConfig{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	assert.PanicsWithValue(t, "boom", func() {
		serve(handler, http.MethodPost, "/api/estadisticas?file=x.txt")
	})

	snap := registry.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.FailedRequests)
	assert.Zero(t, snap.SuccessfulRequests)
	require.Len(t, logs.critical, 1)
	assert.Equal(t, "Exception en petición: POST /api/estadisticas?file=x.txt - boom", logs.critical[0])
}

func TestStatistics_SlowRequestsAreThrottled(t *testing.T) {
	registry := stats.NewRegistry(nil, nil, nil)
	logs := &recordedLogs{}
	mw := Statistics(registry, logs, StatisticsConfig{SlowThreshold: time.Millisecond, SlowLogsPerSecond: 1})
	slow := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
	}))

	for i := 0; i < 3; i++ {
		serve(slow, http.MethodGet, "/api/lento")
	}

	logs.mu.Lock()
	defer logs.mu.Unlock()
	require.Len(t, logs.lines, 1, "burst of one per second")
	assert.Regexp(t, `^Petición lenta: GET /api/lento - \d+ms$`, logs.lines[0])
	assert.Greater(t, registry.Snapshot().AverageResponseTimeMs, float64(0))
}
