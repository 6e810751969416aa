package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Session is one unit of work: a query surface whose changes are committed
// or rolled back together.
type Session interface {
	DBTX

	// ID identifies the session in logs.
	ID() uuid.UUID

	// Commit makes the session's changes durable.
	Commit() error

	// Rollback discards the session's changes.
	Rollback() error

	// Close releases the underlying resources. A session that was neither
	// committed nor rolled back is rolled back. Close is idempotent.
	Close() error
}

// SessionFactory opens sessions.
type SessionFactory interface {
	Begin(ctx context.Context) (Session, error)
}

type sessionKey struct{}

type binding struct {
	session Session
}

// Bind returns a copy of ctx carrying s. The binding is visible to
// everything that receives the derived context and to nothing else.
func Bind(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, binding{session: s})
}

// Unbind returns a copy of ctx in which no session is visible.
func Unbind(ctx context.Context) context.Context {
	return context.WithValue(ctx, sessionKey{}, binding{})
}

// Current returns the session bound to ctx, or ErrNoSession.
func Current(ctx context.Context) (Session, error) {
	if ctx == nil {
		return nil, ErrNoSession
	}
	b, ok := ctx.Value(sessionKey{}).(binding)
	if !ok || b.session == nil {
		return nil, ErrNoSession
	}
	return b.session, nil
}

// MustCurrent is like Current but panics when no session is bound.
func MustCurrent(ctx context.Context) Session {
	s, err := Current(ctx)
	if err != nil {
		// ALLOW-PANIC: data access without a unit of work is a programming error
		panic(fmt.Errorf("store: %w", err))
	}
	return s
}
