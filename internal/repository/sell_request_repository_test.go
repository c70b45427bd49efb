package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

var sellRequestCols = []string{
	"id", "brand_id", "model_id", "year", "expected_price", "mileage", "fuel_type", "transmission", "color",
	"condition", "body_type", "additional_info", "images", "seller_name", "seller_email", "seller_phone", "status",
	"created_at", "updated_at",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
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
	return mock
}

func sellRequestRow(mock pgxmock.PgxPoolIface, id string, status domain.SellRequestStatus) *pgxmock.Rows {
	price := int64(15000)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return mock.NewRows(sellRequestCols).AddRow(
		id, "brand-1", "model-1", 2020, &price, nil, nil, nil, nil,
		nil, nil, nil, []string{"sell/a.jpg"}, "Alice", "a@x.com", "+100000000", status,
		now, now,
	)
}

func beginTx(t *testing.T, mock pgxmock.PgxPoolIface) persistence.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := persistence.NewTxManager(mock).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestGetForUpdateLocksRowInsideTx(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSellRequestRepository(mock)
	ctx := context.Background()

	tx := beginTx(t, mock)
	mock.ExpectQuery(`SELECT .+ FROM sell_requests WHERE id=\$1 FOR UPDATE`).
		WithArgs("req-1").
		WillReturnRows(sellRequestRow(mock, "req-1", domain.SellRequestPending))
	mock.ExpectRollback()

	req, err := repo.GetForUpdate(ctx, tx, "req-1")
	if err != nil {
		t.Fatalf("get for update: %v", err)
	}
	if req.ID != "req-1" || req.Status != domain.SellRequestPending || req.ExpectedPrice == nil || *req.ExpectedPrice != 15000 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
}

func TestGetForUpdateMissingRow(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSellRequestRepository(mock)

	mock.ExpectQuery(`FROM sell_requests WHERE id=\$1 FOR UPDATE`).
		WithArgs("missing").
		WillReturnRows(mock.NewRows(sellRequestCols))

	if _, err := repo.GetForUpdate(context.Background(), nil, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

const transitionSQL = `UPDATE sell_requests SET status=\$1, updated_at=NOW\(\) WHERE id=\$2 AND status=\$3 RETURNING`
const existsSQL = `SELECT EXISTS \(SELECT 1 FROM sell_requests WHERE id=\$1\)`

func TestTransitionStatusConditionalUpdate(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSellRequestRepository(mock)

	mock.ExpectQuery(transitionSQL).
		WithArgs(domain.SellRequestApproved, "req-1", domain.SellRequestPending).
		WillReturnRows(sellRequestRow(mock, "req-1", domain.SellRequestApproved))

	req, err := repo.TransitionStatus(context.Background(), nil, "req-1", domain.SellRequestPending, domain.SellRequestApproved)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if req.Status != domain.SellRequestApproved {
		t.Fatalf("expected approved, got %s", req.Status)
	}
}

func TestTransitionStatusNoRowUpdated(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
		exists    *bool
		existsErr error
		want      error
	}{
		{name: "status already changed", exists: ptr(true), want: ErrStatusConflict},
		{name: "request missing", exists: ptr(false), want: ErrNotFound},
		{
			name:      "malformed id",
			updateErr: &pgconn.PgError{Code: "22P02"},
			existsErr: &pgconn.PgError{Code: "22P02"},
			want:      ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewSellRequestRepository(mock)

			update := mock.ExpectQuery(transitionSQL).
				WithArgs(domain.SellRequestRejected, "req-1", domain.SellRequestPending)
			if tt.updateErr != nil {
				update.WillReturnError(tt.updateErr)
			} else {
				update.WillReturnRows(mock.NewRows(sellRequestCols))
			}
			exists := mock.ExpectQuery(existsSQL).WithArgs("req-1")
			if tt.existsErr != nil {
				exists.WillReturnError(tt.existsErr)
			} else {
				exists.WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(*tt.exists))
			}

			_, err := repo.TransitionStatus(context.Background(), nil, "req-1", domain.SellRequestPending, domain.SellRequestRejected)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTransitionStatusPropagatesDriverErrors(t *testing.T) {
	mock := newMockPool(t)
	repo := NewSellRequestRepository(mock)
	boom := errors.New("connection reset")

	mock.ExpectQuery(transitionSQL).
		WithArgs(domain.SellRequestApproved, "req-1", domain.SellRequestPending).
		WillReturnError(boom)

	_, err := repo.TransitionStatus(context.Background(), nil, "req-1", domain.SellRequestPending, domain.SellRequestApproved)
	if !errors.Is(err, boom) {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
