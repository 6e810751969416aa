package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/crm-core/internal/stats"
)

type fakeStats struct {
	mu       sync.Mutex
	snap     stats.Snapshot
	resets   int
	exported []string
}

func (f *fakeStats) Snapshot() stats.Snapshot { return f.snap }

func (f *fakeStats) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeStats) ExportAsync(_ context.Context, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exported = append(f.exported, name)
}

func TestStatsHandler_GetStatistics(t *testing.T) {
	svc := &fakeStats{snap: stats.Snapshot{
		TotalRequests:         4,
		SuccessfulRequests:    3,
		FailedRequests:        1,
		LogsWritten:           2,
		AverageResponseTimeMs: 12.5,
	}}
	h := NewStatsHandler(svc, nil)

	rec := httptest.NewRecorder()
	h.GetStatistics(rec, httptest.NewRequest(http.MethodGet, "/api/estadisticas", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"totalRequests":4,"successfulRequests":3,"failedRequests":1,"logsWritten":2,"averageResponseTime":12.5}`,
		rec.Body.String())
}

func TestStatsHandler_ResetStatistics(t *testing.T) {
	svc := &fakeStats{}
	audit := &recordedAudit{}
	h := NewStatsHandler(svc, nil).WithAuditLog(audit)

	rec := httptest.NewRecorder()
	h.ResetStatistics(rec, httptest.NewRequest(http.MethodDelete, "/api/estadisticas", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Estadísticas reseteadas"}`, rec.Body.String())
	assert.Equal(t, 1, svc.resets)
	assert.Equal(t, []string{"DELETE /api/estadisticas - estadísticas reseteadas"}, audit.lines)
}

func TestStatsHandler_ExportStatistics(t *testing.T) {
	t.Run("named file", func(t *testing.T) {
		svc := &fakeStats{}
		h := NewStatsHandler(svc, nil)

		rec := httptest.NewRecorder()
		h.ExportStatistics(rec, httptest.NewRequest(http.MethodPost, "/api/estadisticas?file=resumen.txt", nil))

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"message":"Exportando estadísticas en segundo plano","file":"resumen.txt"}`, rec.Body.String())
		assert.Equal(t, []string{"resumen.txt"}, svc.exported)
	})

	t.Run("default name", func(t *testing.T) {
		svc := &fakeStats{}
		h := NewStatsHandler(svc, nil)
		h.now = func() time.Time { return time.UnixMilli(1700000000123) }

		rec := httptest.NewRecorder()
		h.ExportStatistics(rec, httptest.NewRequest(http.MethodPost, "/api/estadisticas", nil))

		require.Equal(t, http.StatusAccepted, rec.Code)
		var body ExportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "estadisticas_1700000000123.txt", body.File)
		assert.Equal(t, []string{"estadisticas_1700000000123.txt"}, svc.exported)
	})

	t.Run("path components rejected", func(t *testing.T) {
		for _, name := range []string{"../etc/passwd", "a%5Cb.txt", ".."} {
			svc := &fakeStats{}
			h := NewStatsHandler(svc, nil)

			rec := httptest.NewRecorder()
			h.ExportStatistics(rec, httptest.NewRequest(http.MethodPost, "/api/estadisticas?file="+name, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
			assert.Empty(t, svc.exported, name)
		}
	})
}

func TestNewStatsHandler_PanicsOnNilService(t *testing.T) {
	assert.Panics(t, func() { NewStatsHandler(nil, nil) })
}
