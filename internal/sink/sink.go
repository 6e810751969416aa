package sink

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for artifact names that are empty or contain
// a path component.
var ErrInvalidName = errors.New("invalid artifact name")

// Sink stores named text artifacts such as reports and statistics exports.
type Sink interface {
	// Write stores content under name and returns where it ended up:
	// a file path or a storage key.
	Write(ctx context.Context, name string, content []byte) (string, error)
}

// ValidateName rejects names that would escape the destination.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if filepath.Base(name) != name || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
