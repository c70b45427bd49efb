// Package memory provides in-process implementations of the repository
// interfaces. It backs the service when no Postgres DSN is configured and
// is used throughout the tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

var errForeignTx = errors.New("memory: transaction does not belong to this store")

// Store holds every table in maps guarded by a single mutex. A transaction
// owns the mutex from Begin until Commit or Rollback, so repository calls
// made with that transaction must not be mixed with nil-tx calls on the
// same goroutine.
type Store struct {
	mu sync.Mutex

	users        map[string]domain.User
	brands       map[string]domain.Brand
	models       map[string]domain.BrandModel
	cars         map[string]domain.Car
	sellRequests map[string]domain.SellRequest
	enquiries    map[string]domain.Enquiry
	scraps       map[string]domain.ScrapRequest

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		brands:       make(map[string]domain.Brand),
		models:       make(map[string]domain.BrandModel),
		cars:         make(map[string]domain.Car),
		sellRequests: make(map[string]domain.SellRequest),
		enquiries:    make(map[string]domain.Enquiry),
		scraps:       make(map[string]domain.ScrapRequest),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// journal records undo steps for writes made under a transaction.
type journal struct {
	steps []func()
}

func (j *journal) record(fn func()) {
	j.steps = append(j.steps, fn)
}

func (j *journal) undo() {
	for i := len(j.steps) - 1; i >= 0; i-- {
		j.steps[i]()
	}
	j.steps = nil
}

type memTx struct {
	store *Store
	log   journal
	hooks persistence.CommitHooks
	done  bool
}

// Begin locks the store for the lifetime of the transaction.
func (s *Store) Begin(ctx context.Context) (persistence.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &memTx{store: s}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return persistence.ErrTxDone
	}
	t.done = true
	if err := ctx.Err(); err != nil {
		t.log.undo()
		t.hooks.Discard()
		t.store.mu.Unlock()
		return err
	}
	t.log.steps = nil
	t.store.mu.Unlock()
	t.hooks.Run(ctx)
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.log.undo()
	t.hooks.Discard()
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) AfterCommit(fn func(ctx context.Context)) {
	t.hooks.Add(fn)
}

// run executes fn with the store locked, either by the caller's
// transaction or for the duration of the call.
func (s *Store) run(tx persistence.Tx, fn func(j *journal) error) error {
	if tx != nil {
		t, ok := tx.(*memTx)
		if !ok || t.store != s {
			return errForeignTx
		}
		if t.done {
			return persistence.ErrTxDone
		}
		return fn(&t.log)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var j journal
	if err := fn(&j); err != nil {
		j.undo()
		return err
	}
	return nil
}

func (s *Store) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func put[V any](j *journal, m map[string]V, key string, value V) {
	old, had := m[key]
	j.record(func() {
		if had {
			m[key] = old
		} else {
			delete(m, key)
		}
	})
	m[key] = value
}

func remove[V any](j *journal, m map[string]V, key string) {
	old, had := m[key]
	if !had {
		return
	}
	j.record(func() { m[key] = old })
	delete(m, key)
}

func newID() string {
	return uuid.NewString()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string(nil), in...)
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Brands returns the brand repository view.
func (s *Store) Brands() *BrandRepository { return &BrandRepository{s: s} }

// Models returns the brand model repository view.
func (s *Store) Models() *BrandModelRepository { return &BrandModelRepository{s: s} }

// Cars returns the car repository view.
func (s *Store) Cars() *CarRepository { return &CarRepository{s: s} }

// SellRequests returns the sell request repository view.
func (s *Store) SellRequests() *SellRequestRepository { return &SellRequestRepository{s: s} }

// Enquiries returns the enquiry repository view.
func (s *Store) Enquiries() *EnquiryRepository { return &EnquiryRepository{s: s} }

// Scraps returns the scrap request repository view.
func (s *Store) Scraps() *ScrapRepository { return &ScrapRepository{s: s} }

// Stats returns the dashboard aggregate view.
func (s *Store) Stats() *StatsRepository { return &StatsRepository{s: s} }
