package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// SellRequestRepository stores seller submissions.
type SellRequestRepository interface {
	Create(ctx context.Context, tx persistence.Tx, req *domain.SellRequest) error
	GetByID(ctx context.Context, id string) (*domain.SellRequest, error)
	// GetForUpdate reads the request and locks it until tx ends.
	GetForUpdate(ctx context.Context, tx persistence.Tx, id string) (*domain.SellRequest, error)
	List(ctx context.Context, page Page) ([]domain.SellRequest, int, error)
	// ExistsForBrandModel reports whether a request for the pair exists with
	// one of statuses; no statuses matches any.
	ExistsForBrandModel(ctx context.Context, tx persistence.Tx, brandID, modelID string, statuses []domain.SellRequestStatus) (bool, error)
	// LockBrandModel serializes submissions for one brand and model until
	// tx ends.
	LockBrandModel(ctx context.Context, tx persistence.Tx, brandID, modelID string) error
	// TransitionStatus moves the request from one status to another and
	// returns ErrStatusConflict when the stored status is not from.
	TransitionStatus(ctx context.Context, tx persistence.Tx, id string, from, to domain.SellRequestStatus) (*domain.SellRequest, error)
}

type sellRequestRepository struct {
	pool persistence.DBTX
}

// NewSellRequestRepository builds repository.
func NewSellRequestRepository(pool persistence.DBTX) SellRequestRepository {
	return &sellRequestRepository{pool: pool}
}

const sellRequestColumns = `id, brand_id, model_id, year, expected_price, mileage, fuel_type, transmission, color,
               condition, body_type, additional_info, images, seller_name, seller_email, seller_phone, status,
               created_at, updated_at`

func (r *sellRequestRepository) Create(ctx context.Context, tx persistence.Tx, req *domain.SellRequest) error {
	const query = `
        INSERT INTO sell_requests (brand_id, model_id, year, expected_price, mileage, fuel_type, transmission, color,
            condition, body_type, additional_info, images, seller_name, seller_email, seller_phone, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return mapErr(persistence.Conn(r.pool, tx).QueryRow(ctx, query,
		req.BrandID,
		req.ModelID,
		req.Year,
		req.ExpectedPrice,
		req.Mileage,
		req.FuelType,
		req.Transmission,
		req.Color,
		req.Condition,
		req.BodyType,
		req.AdditionalInfo,
		req.Images,
		req.SellerName,
		req.SellerEmail,
		req.SellerPhone,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt))
}

func (r *sellRequestRepository) GetByID(ctx context.Context, id string) (*domain.SellRequest, error) {
	return scanSellRequest(r.pool.QueryRow(ctx, `SELECT `+sellRequestColumns+` FROM sell_requests WHERE id=$1`, id))
}

func (r *sellRequestRepository) GetForUpdate(ctx context.Context, tx persistence.Tx, id string) (*domain.SellRequest, error) {
	return scanSellRequest(persistence.Conn(r.pool, tx).QueryRow(ctx,
		`SELECT `+sellRequestColumns+` FROM sell_requests WHERE id=$1 FOR UPDATE`, id))
}

func (r *sellRequestRepository) List(ctx context.Context, page Page) ([]domain.SellRequest, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sell_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+sellRequestColumns+` FROM sell_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.SellRequest
	for rows.Next() {
		req, err := scanSellRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *req)
	}
	return result, total, rows.Err()
}

func (r *sellRequestRepository) ExistsForBrandModel(ctx context.Context, tx persistence.Tx, brandID, modelID string, statuses []domain.SellRequestStatus) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM sell_requests WHERE brand_id=$1 AND model_id=$2`
	args := []any{brandID, modelID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		args = append(args, values)
		query += ` AND status = ANY($3)`
	}
	query += `)`

	var exists bool
	if err := persistence.Conn(r.pool, tx).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, mapErr(err)
	}
	return exists, nil
}

func (r *sellRequestRepository) LockBrandModel(ctx context.Context, tx persistence.Tx, brandID, modelID string) error {
	if tx == nil {
		return errors.New("LockBrandModel requires a transaction")
	}
	_, err := persistence.Conn(r.pool, tx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, brandModelLockKey(brandID, modelID))
	return err
}

func brandModelLockKey(brandID, modelID string) string {
	return "sell_request:" + brandID + ":" + modelID
}

func (r *sellRequestRepository) TransitionStatus(ctx context.Context, tx persistence.Tx, id string, from, to domain.SellRequestStatus) (*domain.SellRequest, error) {
	db := persistence.Conn(r.pool, tx)
	req, err := scanSellRequest(db.QueryRow(ctx,
		`UPDATE sell_requests SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3 RETURNING `+sellRequestColumns,
		to, id, from))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sell_requests WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, mapErr(err)
	}
	if exists {
		return nil, ErrStatusConflict
	}
	return nil, ErrNotFound
}

func scanSellRequest(row pgx.Row) (*domain.SellRequest, error) {
	var req domain.SellRequest
	if err := row.Scan(
		&req.ID,
		&req.BrandID,
		&req.ModelID,
		&req.Year,
		&req.ExpectedPrice,
		&req.Mileage,
		&req.FuelType,
		&req.Transmission,
		&req.Color,
		&req.Condition,
		&req.BodyType,
		&req.AdditionalInfo,
		&req.Images,
		&req.SellerName,
		&req.SellerEmail,
		&req.SellerPhone,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &req, nil
}
