package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileSink writes artifacts as files under a resolved directory.
type FileSink struct {
	dirs *DirResolver
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates a FileSink.
func NewFileSink(dirs *DirResolver) *FileSink {
	return &FileSink{dirs: dirs}
}

// Dirs returns the resolver backing the sink.
func (s *FileSink) Dirs() *DirResolver {
	return s.dirs
}

// Write creates or truncates the file name and writes content to it.
func (s *FileSink) Write(ctx context.Context, name string, content []byte) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := s.dirs.Resolve()
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	return path, nil
}
