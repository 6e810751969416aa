package stats

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/crm-core/internal/sink"
	"github.com/phrazzld/crm-core/internal/task"
	"github.com/phrazzld/crm-core/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct{}

func (failingSink) Write(context.Context, string, []byte) (string, error) {
	return "", errors.New("destination unavailable")
}

func newRunner(t *testing.T) *task.Runner {
	t.Helper()
	logger, _ := testutils.NewTestLogger()
	r := task.NewRunner(task.RunnerConfig{WorkerCount: 2, QueueSize: 10}, logger)
	r.Start()
	t.Cleanup(r.Stop)
	return r
}

func TestSnapshot_EmptyRegistry(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	snap := r.Snapshot()

	assert.Equal(t, Snapshot{}, snap)
	assert.Equal(t, 0.0, snap.AverageResponseTimeMs, "average must not divide by zero")
}

func TestCountersAndAverage(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	for i := 0; i < 4; i++ {
		r.IncrementTotal()
	}
	r.IncrementSuccess()
	r.IncrementSuccess()
	r.IncrementSuccess()
	r.IncrementFailure()
	r.IncrementLogsWritten()
	r.AddResponseTime(100)
	r.AddResponseTime(50)

	snap := r.Snapshot()
	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.Equal(t, int64(3), snap.SuccessfulRequests)
	assert.Equal(t, int64(1), snap.FailedRequests)
	assert.Equal(t, int64(1), snap.LogsWritten)
	assert.InDelta(t, 37.5, snap.AverageResponseTimeMs, 0.0001)
}

func TestConcurrentIncrements(t *testing.T) {
	r := NewRegistry(nil, nil, nil)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				r.IncrementTotal()
				r.AddResponseTime(2)
			}
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	assert.Equal(t, int64(10000), snap.TotalRequests)
	assert.InDelta(t, 2.0, snap.AverageResponseTimeMs, 0.0001)
}

func TestReset(t *testing.T) {
	r := NewRegistry(nil, nil, nil)
	r.IncrementTotal()
	r.IncrementFailure()
	r.IncrementLogsWritten()
	r.AddResponseTime(20)

	r.Reset()
	assert.Equal(t, Snapshot{}, r.Snapshot())
}

func TestFormatSnapshot(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	text := FormatSnapshot(Snapshot{
		TotalRequests:         10,
		SuccessfulRequests:    8,
		FailedRequests:        2,
		LogsWritten:           5,
		AverageResponseTimeMs: 12.5,
	}, at)

	expected := "=== Estadísticas API ===\n" +
		"Fecha: 2024-03-01T09:30:00Z\n\n" +
		"Total: 10\n" +
		"OK: 8\n" +
		"Errores: 2\n" +
		"Logs: 5\n" +
		"Promedio respuesta: 12.50 ms\n"
	assert.Equal(t, expected, text)
}

func TestDefaultExportName(t *testing.T) {
	at := time.UnixMilli(1709285400123)
	assert.Equal(t, "estadisticas_1709285400123.txt", DefaultExportName(at))
}

func TestExportAsync_WritesFile(t *testing.T) {
	dir := t.TempDir()
	out := sink.NewFileSink(sink.NewDirResolver(dir))
	logger, handler := testutils.NewTestLogger()

	r := NewRegistry(newRunner(t), out, logger)
	r.IncrementTotal()
	r.IncrementSuccess()

	r.ExportAsync(context.Background(), "resumen.txt")
	handler.WaitForMessage(t, "statistics exported", 2*time.Second)

	content, err := os.ReadFile(filepath.Join(dir, "resumen.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Total: 1\n")
	assert.Contains(t, string(content), "OK: 1\n")
}

func TestExportAsync_DefaultName(t *testing.T) {
	dir := t.TempDir()
	logger, handler := testutils.NewTestLogger()

	r := NewRegistry(newRunner(t), sink.NewFileSink(sink.NewDirResolver(dir)), logger)
	r.now = func() time.Time { return time.UnixMilli(42) }

	r.ExportAsync(context.Background(), "")
	handler.WaitForMessage(t, "statistics exported", 2*time.Second)

	assert.FileExists(t, filepath.Join(dir, "estadisticas_42.txt"))
}

func TestExportAsync_FailureIsOnlyLogged(t *testing.T) {
	logger, handler := testutils.NewTestLogger()
	r := NewRegistry(newRunner(t), failingSink{}, logger)

	start := time.Now()
	r.ExportAsync(context.Background(), "x.txt")
	assert.Less(t, time.Since(start), 100*time.Millisecond, "caller must not wait for the export")

	entry := handler.WaitForMessage(t, "statistics export failed", 2*time.Second)
	assert.Equal(t, "ERROR", entry["level"])
}

func TestExportAsync_RunnerStopped(t *testing.T) {
	logger, handler := testutils.NewTestLogger()
	runner := task.NewRunner(task.DefaultRunnerConfig(), logger)
	runner.Start()
	runner.Stop()

	r := NewRegistry(runner, sink.NewFileSink(sink.NewDirResolver(t.TempDir())), logger)
	r.ExportAsync(context.Background(), "late.txt")

	assert.Len(t, handler.FindByMessage("statistics export not scheduled"), 1)
}
