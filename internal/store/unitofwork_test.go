package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records lifecycle calls. The DBTX methods are never used.
type fakeSession struct {
	DBTX
	id uuid.UUID

	mu          sync.Mutex
	commits     int
	rollbacks   int
	closes      int
	commitErr   error
	rollbackErr error
}

func (s *fakeSession) ID() uuid.UUID { return s.id }

func (s *fakeSession) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return s.commitErr
}

func (s *fakeSession) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollbacks++
	return s.rollbackErr
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

type fakeFactory struct {
	mu       sync.Mutex
	sessions []*fakeSession
	beginErr error
	prepare  func(s *fakeSession)
}

func (f *fakeFactory) Begin(ctx context.Context) (Session, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	s := &fakeSession{id: uuid.New()}
	if f.prepare != nil {
		f.prepare(s)
	}
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return s, nil
}

func (f *fakeFactory) last() *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[len(f.sessions)-1]
}

func TestCurrent_NoBinding(t *testing.T) {
	_, err := Current(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)

	//nolint:staticcheck // nil context is exercised on purpose
	_, err = Current(nil)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.Panics(t, func() { MustCurrent(context.Background()) })
}

func TestBindAndUnbind(t *testing.T) {
	s := &fakeSession{id: uuid.New()}
	ctx := Bind(context.Background(), s)

	got, err := Current(ctx)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Same(t, s, MustCurrent(ctx))

	_, err = Current(Unbind(ctx))
	assert.ErrorIs(t, err, ErrNoSession)

	// The parent context keeps its binding
	_, err = Current(ctx)
	assert.NoError(t, err)
}

func TestRunInSession_Commit(t *testing.T) {
	factory := &fakeFactory{}
	var seen Session

	err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
		s, err := Current(ctx)
		seen = s
		return err
	})
	require.NoError(t, err)

	s := factory.last()
	assert.Same(t, s, seen)
	assert.Equal(t, 1, s.commits)
	assert.Equal(t, 0, s.rollbacks)
	assert.Equal(t, 1, s.closes)
}

func TestRunInSession_ErrorRollsBack(t *testing.T) {
	factory := &fakeFactory{}
	expected := errors.New("query failed")

	ctx := context.Background()
	err := RunInSession(ctx, factory, func(ctx context.Context) error {
		return expected
	})
	assert.ErrorIs(t, err, expected)

	s := factory.last()
	assert.Equal(t, 0, s.commits)
	assert.Equal(t, 1, s.rollbacks)
	assert.Equal(t, 1, s.closes)

	// No binding leaks into the caller's context
	_, err = Current(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRunInSession_RollbackFailure(t *testing.T) {
	factory := &fakeFactory{prepare: func(s *fakeSession) {
		s.rollbackErr = errors.New("connection reset")
	}}
	expected := errors.New("query failed")

	err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
		return expected
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, expected)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 1, factory.last().closes)
}

func TestRunInSession_PanicRollsBackAndRepanics(t *testing.T) {
	factory := &fakeFactory{}

	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInSession(context.Background(), factory, func(ctx context.Context) error {
			panic("boom")
		})
	})

	s := factory.last()
	assert.Equal(t, 0, s.commits)
	assert.Equal(t, 1, s.rollbacks)
	assert.Equal(t, 1, s.closes)
}

func TestRunInSession_BeginFailure(t *testing.T) {
	factory := &fakeFactory{beginErr: errors.New("pool exhausted")}
	called := false

	err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.False(t, called)
}

func TestRunInSession_CommitFailure(t *testing.T) {
	factory := &fakeFactory{prepare: func(s *fakeSession) {
		s.commitErr = sql.ErrConnDone
	}}

	err := RunInSession(context.Background(), factory, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, 1, factory.last().closes)
}

func TestRunInSession_ConcurrentIsolation(t *testing.T) {
	factory := &fakeFactory{}
	const workers = 10

	ids := make(chan uuid.UUID, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := RunInSession(context.Background(), factory, func(ctx context.Context) error {
				s := MustCurrent(ctx)
				ids <- s.ID()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uuid.UUID]bool)
	for id := range ids {
		assert.False(t, seen[id], "each task must see its own session")
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}
