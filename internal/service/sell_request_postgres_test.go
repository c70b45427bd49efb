package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/events"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository"
)

var pgSellRequestCols = []string{
	"id", "brand_id", "model_id", "year", "expected_price", "mileage", "fuel_type", "transmission", "color",
	"condition", "body_type", "additional_info", "images", "seller_name", "seller_email", "seller_phone", "status",
	"created_at", "updated_at",
}

var pgNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type pgFixture struct {
	mock   pgxmock.PgxPoolIface
	sell   *SellRequestService
	admin  *domain.User
	mu     sync.Mutex
	events []events.EventType
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})

	f := &pgFixture{mock: mock, admin: &domain.User{ID: "admin-1", Role: domain.RoleAdmin}}
	dispatcher := events.NewInMemoryDispatcher(nil)
	record := func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		f.events = append(f.events, e.Type)
		f.mu.Unlock()
		return nil
	}
	dispatcher.Subscribe(events.EventSellRequestApproved, record)
	dispatcher.Subscribe(events.EventSellRequestRejected, record)

	txm := persistence.NewTxManager(mock)
	models := repository.NewBrandModelRepository(mock)
	cars := repository.NewCarRepository(mock)
	catalog := NewCatalogService(CatalogDependencies{
		BrandRepo: repository.NewBrandRepository(mock),
		ModelRepo: models,
		CarRepo:   cars,
		TxManager: txm,
	})
	f.sell = NewSellRequestService(SellRequestDependencies{
		SellRequestRepo: repository.NewSellRequestRepository(mock),
		ModelRepo:       models,
		CarRepo:         cars,
		Catalog:         catalog,
		TxManager:       txm,
		Dispatcher:      dispatcher,
		DuplicatePolicy: config.DuplicateRejectOpen,
	})
	return f
}

func (f *pgFixture) requestRow(status domain.SellRequestStatus) *pgxmock.Rows {
	price := int64(15000)
	return f.mock.NewRows(pgSellRequestCols).AddRow(
		"req-1", "brand-1", "model-1", 2020, &price, nil, nil, nil, nil,
		nil, nil, nil, []string{"sell/a.jpg"}, "Alice", "a@x.com", "+100000000", status,
		pgNow, pgNow,
	)
}

func (f *pgFixture) expectLockedRead(status domain.SellRequestStatus) {
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FROM sell_requests WHERE id=\$1 FOR UPDATE`).
		WithArgs("req-1").
		WillReturnRows(f.requestRow(status))
}

func (f *pgFixture) expectModelShareLock() {
	f.mock.ExpectQuery(`FROM brand_models WHERE id=\$1 FOR SHARE`).
		WithArgs("model-1").
		WillReturnRows(f.mock.NewRows([]string{"id", "brand_id", "name", "created_at"}).
			AddRow("model-1", "brand-1", "Corolla", pgNow))
}

// carInsertArgs matches the cars INSERT, pinning only sell_request_id.
func carInsertArgs(requestID string) []any {
	args := make([]any, 0, 19)
	for i := 0; i < 18; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	return append(args, &requestID)
}

func (f *pgFixture) recorded() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.EventType(nil), f.events...)
}

func TestPostgresApproveRunsInOneTransaction(t *testing.T) {
	f := newPgFixture(t)

	f.expectLockedRead(domain.SellRequestPending)
	f.expectModelShareLock()
	f.mock.ExpectQuery(`INSERT INTO cars`).
		WithArgs(carInsertArgs("req-1")...).
		WillReturnRows(f.mock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("car-1", pgNow, pgNow))
	f.mock.ExpectQuery(`UPDATE sell_requests SET status=\$1, updated_at=NOW\(\) WHERE id=\$2 AND status=\$3`).
		WithArgs(domain.SellRequestApproved, "req-1", domain.SellRequestPending).
		WillReturnRows(f.requestRow(domain.SellRequestApproved))
	f.mock.ExpectCommit()

	updated, err := f.sell.Transition(context.Background(), "req-1", domain.SellRequestApproved, f.admin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != domain.SellRequestApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	if got := f.recorded(); len(got) != 1 || got[0] != events.EventSellRequestApproved {
		t.Fatalf("expected one approved event, got %v", got)
	}
}

func TestPostgresSecondCarForRequestIsConflict(t *testing.T) {
	f := newPgFixture(t)

	f.expectLockedRead(domain.SellRequestPending)
	f.expectModelShareLock()
	f.mock.ExpectQuery(`INSERT INTO cars`).
		WithArgs(carInsertArgs("req-1")...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "cars_sell_request_id_key"})
	f.mock.ExpectRollback()

	_, err := f.sell.Transition(context.Background(), "req-1", domain.SellRequestApproved, f.admin)
	assertCode(t, err, "CONFLICT", 409)
	if got := f.recorded(); len(got) != 0 {
		t.Fatalf("event published for rolled back transition: %v", got)
	}
}

func TestPostgresLockWaiterSeesFinalizedRequest(t *testing.T) {
	f := newPgFixture(t)

	f.expectLockedRead(domain.SellRequestApproved)
	f.mock.ExpectRollback()

	_, err := f.sell.Transition(context.Background(), "req-1", domain.SellRequestRejected, f.admin)
	assertCode(t, err, "CONFLICT", 409)
	if got := f.recorded(); len(got) != 0 {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestPostgresConditionalUpdateLosesRace(t *testing.T) {
	f := newPgFixture(t)

	f.expectLockedRead(domain.SellRequestPending)
	f.mock.ExpectQuery(`UPDATE sell_requests SET status=\$1`).
		WithArgs(domain.SellRequestRejected, "req-1", domain.SellRequestPending).
		WillReturnRows(f.mock.NewRows(pgSellRequestCols))
	f.mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM sell_requests WHERE id=\$1\)`).
		WithArgs("req-1").
		WillReturnRows(f.mock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectRollback()

	_, err := f.sell.Transition(context.Background(), "req-1", domain.SellRequestRejected, f.admin)
	assertCode(t, err, "CONFLICT", 409)
}

func (f *pgFixture) expectCatalogLookups() {
	f.mock.ExpectQuery(`FROM brands WHERE id=\$1`).
		WithArgs("brand-1").
		WillReturnRows(f.mock.NewRows([]string{"id", "name", "logo", "description", "is_enabled", "created_at", "updated_at"}).
			AddRow("brand-1", "Toyota", nil, nil, true, pgNow, pgNow))
	f.mock.ExpectQuery(`FROM brand_models WHERE id=\$1`).
		WithArgs("model-1").
		WillReturnRows(f.mock.NewRows([]string{"id", "brand_id", "name", "created_at"}).
			AddRow("model-1", "brand-1", "Corolla", pgNow))
}

func (f *pgFixture) expectGuardedExists(exists bool) {
	f.mock.ExpectBegin()
	f.mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtextextended\(\$1, 0\)\)`).
		WithArgs("sell_request:brand-1:model-1").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	f.mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM sell_requests WHERE brand_id=\$1 AND model_id=\$2 AND status = ANY\(\$3\)\)`).
		WithArgs("brand-1", "model-1", []string{"pending"}).
		WillReturnRows(f.mock.NewRows([]string{"exists"}).AddRow(exists))
}

func pgSubmitInput() SubmitSellRequestInput {
	return SubmitSellRequestInput{
		BrandID:     "brand-1",
		ModelID:     "model-1",
		Year:        2020,
		SellerName:  "Alice",
		SellerEmail: "a@x.com",
		SellerPhone: "+100000000",
	}
}

func TestPostgresSubmitChecksDuplicatesUnderLock(t *testing.T) {
	f := newPgFixture(t)

	f.expectCatalogLookups()
	f.expectGuardedExists(false)
	insertArgs := make([]any, 16)
	for i := range insertArgs {
		insertArgs[i] = pgxmock.AnyArg()
	}
	f.mock.ExpectQuery(`INSERT INTO sell_requests`).
		WithArgs(insertArgs...).
		WillReturnRows(f.mock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("req-1", pgNow, pgNow))
	f.mock.ExpectCommit()

	req, err := f.sell.Submit(context.Background(), pgSubmitInput(), []string{"sell/a.jpg"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.ID != "req-1" || req.Status != domain.SellRequestPending {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestPostgresSubmitRejectsOpenDuplicate(t *testing.T) {
	f := newPgFixture(t)

	f.expectCatalogLookups()
	f.expectGuardedExists(true)
	f.mock.ExpectRollback()

	_, err := f.sell.Submit(context.Background(), pgSubmitInput(), []string{"sell/a.jpg"})
	assertCode(t, err, "DUPLICATE_REQUEST", 409)
}
