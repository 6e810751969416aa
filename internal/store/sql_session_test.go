package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "uow.db") + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countNotes(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func TestSQLSession_CommitPersists(t *testing.T) {
	db := openSQLite(t)
	factory := NewSQLSessionFactory(db, nil)

	err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
		s := MustCurrent(ctx)
		_, err := s.ExecContext(ctx, `INSERT INTO notes (body) VALUES (?)`, "hola")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countNotes(t, db))
}

func TestSQLSession_ErrorDiscards(t *testing.T) {
	db := openSQLite(t)
	factory := NewSQLSessionFactory(db, nil)

	err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
		s := MustCurrent(ctx)
		if _, err := s.ExecContext(ctx, `INSERT INTO notes (body) VALUES (?)`, "hola"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countNotes(t, db))
}

func TestSQLSession_ClosedSessionRejectsQueries(t *testing.T) {
	db := openSQLite(t)
	factory := NewSQLSessionFactory(db, nil)

	var leaked Session
	err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
		leaked = MustCurrent(ctx)
		return nil
	})
	require.NoError(t, err)

	_, err = leaked.ExecContext(context.Background(), `INSERT INTO notes (body) VALUES ('x')`)
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = leaked.QueryContext(context.Background(), `SELECT body FROM notes`)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.NoError(t, leaked.Close(), "Close is idempotent")
}

func TestSQLSession_CloseWithoutCommitRollsBack(t *testing.T) {
	db := openSQLite(t)
	factory := NewSQLSessionFactory(db, nil)

	s, err := factory.Begin(context.Background())
	require.NoError(t, err)
	_, err = s.ExecContext(context.Background(), `INSERT INTO notes (body) VALUES ('x')`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, 0, countNotes(t, db))
}

func TestNewSQLSessionFactory_NilDB(t *testing.T) {
	assert.Panics(t, func() { NewSQLSessionFactory(nil, nil) })
}
