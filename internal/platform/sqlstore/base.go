package sqlstore

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/crm-core/internal/store"
)

// base carries what every store in this package shares.
type base struct {
	dialect Dialect
	logger  *slog.Logger
	entity  string
}

func newBase(dialect Dialect, logger *slog.Logger, entity, component string) base {
	if dialect.driverName() == "" {
		panic("unsupported dialect: " + string(dialect))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		dialect: dialect,
		logger:  logger.With(slog.String("component", component)),
		entity:  entity,
	}
}

// conn returns the query surface of the session bound to ctx.
func (b base) conn(ctx context.Context, op string) (store.DBTX, error) {
	s, err := store.Current(ctx)
	if err != nil {
		return nil, store.NewStoreError(b.entity, op, "no unit of work", err)
	}
	return s, nil
}

func (b base) q(query string) string {
	return Rebind(b.dialect, query)
}

func (b base) count(ctx context.Context, table string) (int, error) {
	db, err := b.conn(ctx, "count")
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, store.NewStoreError(b.entity, "count", "query failed", MapError(err))
	}
	return n, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
