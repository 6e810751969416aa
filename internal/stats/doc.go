// Package stats keeps process-wide request counters and exports them as a
// text document without blocking the caller.
package stats
