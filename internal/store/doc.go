// Package store defines interfaces for data persistence operations and the
// unit-of-work session that carries them.
//
// A session is opened by RunInSession and bound to the context handed to
// the work function. Repositories look it up with Current, so the same
// code runs unchanged on an HTTP goroutine or a background worker as long
// as it receives the bound context.
package store
