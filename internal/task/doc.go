// Package task runs background work on a fixed pool of workers.
// It provides fire-and-forget submission, value-producing submission
// returning a Future, a join-all barrier over futures, and a Scheduler
// for cancellable fixed-rate jobs. Shutdown drains queued work instead of
// discarding it.
package task
