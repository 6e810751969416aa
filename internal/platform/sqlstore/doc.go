// Package sqlstore implements the store interfaces on database/sql, for
// PostgreSQL through pgx and for SQLite through modernc.org/sqlite.
//
// Stores never hold a connection. Every call resolves its query surface
// from the unit-of-work session bound to the context, so all work inside
// one store.RunInSession shares a transaction.
//
// Queries are written with ? placeholders and rebound per dialect.
// Schema migrations are embedded and applied through goose.
package sqlstore
