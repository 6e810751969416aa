package report

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/crm-core/internal/task"
)

// CleanupResult summarizes one retention sweep.
type CleanupResult struct {
	Scanned int
	Removed int
	Failed  int
}

// sweepable reports whether name is an artifact the retention sweep owns.
func sweepable(name string) bool {
	return (strings.HasPrefix(name, "informe_") || strings.HasPrefix(name, "estadisticas_")) &&
		strings.HasSuffix(name, ".txt")
}

// Cleanup deletes report and statistics artifacts older than the retention
// period from every candidate directory. Per-file failures are logged and
// counted; directories that do not exist are skipped.
func (o *Orchestrator) Cleanup(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult
	cutoff := o.deps.Now().Add(-o.cfg.Retention)
	log := o.logger.With("job", "report-cleanup")

	for _, dir := range o.cfg.Dirs.Candidates() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			log.Warn("failed to list report directory", "dir", dir, "error", err)
			continue
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if !entry.Type().IsRegular() || !sweepable(entry.Name()) {
				continue
			}
			result.Scanned++

			info, err := entry.Info()
			if err != nil {
				// Removed between listing and stat.
				if !errors.Is(err, fs.ErrNotExist) {
					result.Failed++
					log.Warn("failed to stat report", "file", entry.Name(), "error", err)
				}
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				result.Failed++
				log.Warn("failed to remove old report", "path", path, "error", err)
				continue
			}
			result.Removed++
		}
	}

	if result.Removed > 0 || result.Failed > 0 {
		log.Info("old reports removed",
			"removed", result.Removed,
			"failed", result.Failed,
			"scanned", result.Scanned)
	}
	return result, nil
}

// StartCleanup registers the retention sweep on s. The first sweep runs
// immediately.
func (o *Orchestrator) StartCleanup(s *task.Scheduler) (context.CancelFunc, error) {
	return s.Every("report-cleanup", o.cfg.CleanupInterval, task.StartImmediately, func(ctx context.Context) error {
		_, err := o.Cleanup(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}
