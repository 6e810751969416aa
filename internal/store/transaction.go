package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/platform/logger"
)

// SessionFn is a function that executes within a unit of work. The session
// is available through Current(ctx).
type SessionFn func(ctx context.Context) error

// RunInSession opens a session from factory, binds it to the context passed
// to fn, and commits when fn returns nil. On error or panic the session is
// rolled back. The session is closed on every exit path and the binding
// never outlives fn.
func RunInSession(ctx context.Context, factory SessionFactory, fn SessionFn) error {
	log := logger.FromContext(ctx)

	session, err := factory.Begin(ctx)
	if err != nil {
		log.Error("failed to begin session",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: failed to begin session: %w", ErrTransactionFailed, err)
	}
	log = log.With(slog.String("session_id", session.ID().String()))

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warn("failed to close session", slog.String("error", closeErr.Error()))
		}
	}()

	defer func() {
		if p := recover(); p != nil {
			if rbErr := session.Rollback(); rbErr != nil {
				log.Error("failed to roll back session after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back session after panic",
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: Propagating caught panic from unit of work
			panic(p)
		}
	}()

	if err := fn(Bind(ctx, session)); err != nil {
		if rbErr := session.Rollback(); rbErr != nil {
			log.Error("failed to roll back session",
				slog.String("rollback_error", rbErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back session: %v (original error: %w)",
				rbErr,
				err,
			)
		}
		log.Debug("rolled back session due to error",
			slog.String("error", err.Error()))
		return err
	}

	if err := session.Commit(); err != nil {
		log.Error("failed to commit session",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: failed to commit session: %w", ErrTransactionFailed, err)
	}

	log.Debug("session committed successfully")
	return nil
}
