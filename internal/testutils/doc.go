// Package testutils provides testing utilities shared across packages.
//
// TestSlogHandler captures structured log records in memory so tests can
// assert on side-channel failures that are logged rather than returned:
//
//	logger, handler := testutils.NewTestLogger()
//	registry := stats.NewRegistry(runner, failingSink, logger)
//	registry.ExportAsync(ctx, "")
//	handler.WaitForMessage(t, "statistics export failed", time.Second)
package testutils
