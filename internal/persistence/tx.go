package persistence

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTxDone is returned when Commit is called on a finished transaction.
var ErrTxDone = errors.New("transaction already finished")

// Tx is an explicit unit of work. Repository methods that accept a Tx join
// it; a nil Tx means autocommit.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// AfterCommit registers fn to run once the transaction has committed.
	// Hooks never run if the transaction rolls back.
	AfterCommit(fn func(ctx context.Context))
}

// TxManager opens transactions.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories depend on it rather than on the pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CommitHooks collects after-commit callbacks. It is safe for concurrent use.
type CommitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// Add appends a hook.
func (h *CommitHooks) Add(fn func(ctx context.Context)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// Run invokes hooks in registration order with a context that outlives
// the request that committed.
func (h *CommitHooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	for _, fn := range fns {
		fn(detached)
	}
}

// Discard drops pending hooks.
func (h *CommitHooks) Discard() {
	h.mu.Lock()
	h.fns = nil
	h.mu.Unlock()
}

type pgTx struct {
	tx    pgx.Tx
	hooks CommitHooks
	done  bool
}

func (t *pgTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(ctx); err != nil {
		t.hooks.Discard()
		return err
	}
	t.hooks.Run(ctx)
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.hooks.Discard()
	return t.tx.Rollback(ctx)
}

func (t *pgTx) AfterCommit(fn func(ctx context.Context)) {
	t.hooks.Add(fn)
}

var errNoPool = errors.New("postgres pool not configured")

// Beginner opens pgx transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgxTxManager opens Tx values on top of a Beginner.
type PgxTxManager struct {
	db Beginner
}

// NewTxManager wraps db.
func NewTxManager(db Beginner) *PgxTxManager {
	return &PgxTxManager{db: db}
}

// Begin starts a transaction.
func (m *PgxTxManager) Begin(ctx context.Context) (Tx, error) {
	if m == nil || m.db == nil {
		return nil, errNoPool
	}
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

// Begin starts a Postgres transaction.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	if p == nil || p.Pool == nil {
		return nil, errNoPool
	}
	return NewTxManager(p.Pool).Begin(ctx)
}

// Conn returns the pgx transaction behind tx, or pool when tx is nil.
func Conn(pool DBTX, tx Tx) DBTX {
	if t, ok := tx.(*pgTx); ok && t != nil {
		return t.tx
	}
	return pool
}

// RunInTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func RunInTx(ctx context.Context, m TxManager, fn func(tx Tx) error) (err error) {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
