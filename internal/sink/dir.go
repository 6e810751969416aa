package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoUsableDir is returned when none of the candidate directories can be created.
var ErrNoUsableDir = errors.New("no usable output directory")

// DefaultFallbackDir is used when no fallback is configured.
func DefaultFallbackDir() string {
	return filepath.Join(os.TempDir(), "informes")
}

// DirResolver picks the first candidate directory that exists or can be
// created. The choice is cached after the first success.
type DirResolver struct {
	candidates []string

	mu       sync.Mutex
	resolved string
}

// NewDirResolver creates a resolver trying primary first, then each
// fallback in order. Empty entries are skipped.
func NewDirResolver(primary string, fallbacks ...string) *DirResolver {
	candidates := make([]string, 0, 1+len(fallbacks))
	for _, dir := range append([]string{primary}, fallbacks...) {
		if strings.TrimSpace(dir) != "" {
			candidates = append(candidates, dir)
		}
	}
	return &DirResolver{candidates: candidates}
}

// Candidates returns the directories in the order they are tried.
func (r *DirResolver) Candidates() []string {
	out := make([]string, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Resolve returns a directory that is ready for writing.
func (r *DirResolver) Resolve() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != "" {
		// The directory may have been removed since it was chosen.
		if info, err := os.Stat(r.resolved); err == nil && info.IsDir() {
			return r.resolved, nil
		}
		r.resolved = ""
	}

	var errs []error
	for _, dir := range r.candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", dir, err))
			continue
		}
		r.resolved = dir
		return dir, nil
	}

	if len(errs) == 0 {
		return "", ErrNoUsableDir
	}
	return "", fmt.Errorf("%w: %w", ErrNoUsableDir, errors.Join(errs...))
}

// Current returns the last resolved directory without touching the
// filesystem. It is empty until Resolve succeeds.
func (r *DirResolver) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved
}
