// Package store owns the shared entity maps and the only way to reach them:
// scoped read and write transactions. Write transactions apply mutations
// immediately, journal them for rollback and commit the full state to a
// kv.Backend when the scope ends without error.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/kv"
	"officeflow-api/internal/observability/logger"
)

// ErrWouldBlock is returned by the Try helpers when the lock is held.
var ErrWouldBlock = errors.New("store: lock held by another transaction")

// ErrTxDone is returned when a transaction is used outside its scope.
var ErrTxDone = errors.New("store: transaction already finished")

// CommitPolicy decides what happens to in-memory state when the durable
// write of a commit fails.
type CommitPolicy string

const (
	// CommitPolicyRollback undoes the journal so memory matches the last
	// durable state.
	CommitPolicyRollback CommitPolicy = "rollback"
	// CommitPolicyKeep leaves memory mutated. The caller still gets a
	// StorageFailure.
	CommitPolicyKeep CommitPolicy = "keep"
)

// IsValid checks the policy is known.
func (p CommitPolicy) IsValid() bool {
	return p == CommitPolicyRollback || p == CommitPolicyKeep
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	KeyScheme    KeyScheme
	KeyPrefix    string
	CommitPolicy CommitPolicy
	Observer     Observer
	Logger       *logger.Logger
}

type state struct {
	domains    map[string]domain.Domain
	workspaces map[string]*domain.Workspace
	users      map[string]*domain.User
	passwords  map[string]string
}

func newState() *state {
	return &state{
		domains:    make(map[string]domain.Domain),
		workspaces: make(map[string]*domain.Workspace),
		users:      make(map[string]*domain.User),
		passwords:  make(map[string]string),
	}
}

// Store is the single owner of the entity maps. One RWMutex guards all
// four collections: readers share it, a writer holds it exclusively.
type Store struct {
	mu      sync.RWMutex
	st      *state
	backend kv.Backend
	keys    keyspace
	policy  CommitPolicy
	obs     Observer
	log     *logger.Logger

	// persisted tracks ids written under the entity scheme so stale keys
	// can be deleted on the next commit.
	persisted map[string]map[string]struct{}
}

// New creates an empty store committing to backend.
func New(backend kv.Backend, opts Options) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.KeyScheme == "" {
		opts.KeyScheme = KeySchemeCollection
	}
	if !opts.KeyScheme.IsValid() {
		return nil, fmt.Errorf("unknown key scheme %q", opts.KeyScheme)
	}
	if opts.CommitPolicy == "" {
		opts.CommitPolicy = CommitPolicyRollback
	}
	if !opts.CommitPolicy.IsValid() {
		return nil, fmt.Errorf("unknown commit policy %q", opts.CommitPolicy)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	return &Store{
		st:        newState(),
		backend:   backend,
		keys:      keyspace{scheme: opts.KeyScheme, prefix: opts.KeyPrefix},
		policy:    opts.CommitPolicy,
		obs:       opts.Observer,
		log:       opts.Logger,
		persisted: make(map[string]map[string]struct{}),
	}, nil
}

// View runs fn inside a read transaction.
func (s *Store) View(ctx context.Context, fn func(tx *ReadTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runRead(fn)
}

// TryView is View without blocking: it returns ErrWouldBlock when a
// writer holds the lock.
func (s *Store) TryView(ctx context.Context, fn func(tx *ReadTx) error) error {
	if !s.mu.TryRLock() {
		return ErrWouldBlock
	}
	defer s.mu.RUnlock()
	return s.runRead(fn)
}

// Update runs fn inside a write transaction. On success the state is
// committed; on error every journaled change is undone and the error is
// returned unchanged.
func (s *Store) Update(ctx context.Context, fn func(tx *WriteTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runWrite(ctx, fn)
}

// TryUpdate is Update without blocking.
func (s *Store) TryUpdate(ctx context.Context, fn func(tx *WriteTx) error) error {
	if !s.mu.TryLock() {
		return ErrWouldBlock
	}
	defer s.mu.Unlock()
	return s.runWrite(ctx, fn)
}

// WithRead runs fn in a read transaction and returns its value.
func WithRead[T any](ctx context.Context, s *Store, fn func(tx *ReadTx) (T, error)) (T, error) {
	var out T
	err := s.View(ctx, func(tx *ReadTx) error {
		v, err := fn(tx)
		out = v
		return err
	})
	return out, err
}

// WithWrite runs fn in a write transaction and returns its value. The
// zero value is returned when the transaction fails.
func WithWrite[T any](ctx context.Context, s *Store, fn func(tx *WriteTx) (T, error)) (T, error) {
	var out T
	err := s.Update(ctx, func(tx *WriteTx) error {
		v, err := fn(tx)
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// TryWithRead is WithRead without blocking.
func TryWithRead[T any](ctx context.Context, s *Store, fn func(tx *ReadTx) (T, error)) (T, error) {
	var out T
	err := s.TryView(ctx, func(tx *ReadTx) error {
		v, err := fn(tx)
		out = v
		return err
	})
	return out, err
}

// TryWithWrite is WithWrite without blocking.
func TryWithWrite[T any](ctx context.Context, s *Store, fn func(tx *WriteTx) (T, error)) (T, error) {
	var out T
	err := s.TryUpdate(ctx, func(tx *WriteTx) error {
		v, err := fn(tx)
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (s *Store) runRead(fn func(tx *ReadTx) error) error {
	tx := &ReadTx{st: s.st}
	defer tx.finish()
	return fn(tx)
}

func (s *Store) runWrite(ctx context.Context, fn func(tx *WriteTx) error) (err error) {
	start := time.Now()
	tx := &WriteTx{ReadTx: ReadTx{st: s.st}}

	defer func() {
		if r := recover(); r != nil {
			undone := tx.rollback()
			tx.finish()
			s.obs.RolledBack(undone)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		undone := tx.rollback()
		tx.finish()
		s.obs.RolledBack(undone)
		s.log.Debug(ctx, "write transaction rolled back",
			logger.Module("store"),
			logger.Action("rollback"),
			zap.Int("changes", undone),
			zap.Error(err),
		)
		return err
	}

	changes := len(tx.journal)
	if err := s.commit(ctx); err != nil {
		s.obs.CommitFailed(err)
		fields := []logger.Field{
			logger.Module("store"),
			logger.Action("commit"),
			zap.String("policy", string(s.policy)),
			zap.Int("changes", changes),
			zap.Error(err),
		}
		if s.policy == CommitPolicyRollback {
			tx.rollback()
			s.log.Error(ctx, "commit failed, in-memory changes rolled back", fields...)
		} else {
			s.log.Error(ctx, "commit failed, in-memory changes kept", fields...)
		}
		tx.finish()
		return domain.StorageFailure("commit", err)
	}
	tx.finish()

	s.obs.Committed(changes, time.Since(start))
	return nil
}
