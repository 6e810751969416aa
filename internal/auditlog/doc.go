// Package auditlog appends timestamped lines to the application log file
// without blocking the caller.
//
// Regular lines go through the shared task runner and are subject to its
// queue bound. Critical and audit lines run on dedicated goroutines so they
// are written even when the runner is saturated.
package auditlog
