// Package report generates CRM reports in the background.
//
// Single reports (clients, invoices) run as one task on the shared runner.
// The aggregate report fans out three counting tasks and joins them on a
// goroutine of its own; a failed branch is written into the artifact as an
// "Error: ..." line instead of failing the whole report. Every task opens
// its own unit-of-work session, so no two tasks ever share a transaction.
//
// Old artifacts are removed by a retention sweep registered on a
// task.Scheduler.
package report
