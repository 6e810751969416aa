package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// SQLSessionFactory opens sessions backed by database transactions.
type SQLSessionFactory struct {
	db   *sql.DB
	opts *sql.TxOptions
}

var _ SessionFactory = (*SQLSessionFactory)(nil)

// NewSQLSessionFactory creates a factory over db. opts may be nil.
func NewSQLSessionFactory(db *sql.DB, opts *sql.TxOptions) *SQLSessionFactory {
	if db == nil {
		panic("db cannot be nil")
	}
	return &SQLSessionFactory{db: db, opts: opts}
}

// Begin starts a transaction and wraps it in a Session.
func (f *SQLSessionFactory) Begin(ctx context.Context) (Session, error) {
	tx, err := f.db.BeginTx(ctx, f.opts)
	if err != nil {
		return nil, err
	}
	return &sqlSession{id: uuid.New(), tx: tx}, nil
}

type sqlSession struct {
	id uuid.UUID
	tx *sql.Tx

	mu       sync.Mutex
	finished bool
	closed   bool
}

func (s *sqlSession) ID() uuid.UUID { return s.id }

func (s *sqlSession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.tx.ExecContext(ctx, query, args...)
}

func (s *sqlSession) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.tx.PrepareContext(ctx, query)
}

func (s *sqlSession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext cannot report a closed session up front; the transaction
// itself answers with sql.ErrTxDone on Scan.
func (s *sqlSession) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

func (s *sqlSession) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.finished = true
	return s.tx.Commit()
}

func (s *sqlSession) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.finished = true
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (s *sqlSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.finished {
		return nil
	}
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (s *sqlSession) usable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}
