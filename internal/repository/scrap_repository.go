package repository

import (
	"context"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// ScrapRepository stores scrap quote requests.
type ScrapRepository interface {
	Create(ctx context.Context, req *domain.ScrapRequest) error
	List(ctx context.Context, page Page) ([]domain.ScrapRequest, int, error)
}

type scrapRepository struct {
	pool persistence.DBTX
}

// NewScrapRepository builds repository.
func NewScrapRepository(pool persistence.DBTX) ScrapRepository {
	return &scrapRepository{pool: pool}
}

func (r *scrapRepository) Create(ctx context.Context, req *domain.ScrapRequest) error {
	const query = `
        INSERT INTO scrap_requests (name, phone_number, email, car_brand, model, year, fuel_type, city)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return mapErr(r.pool.QueryRow(ctx, query,
		req.Name,
		req.PhoneNumber,
		req.Email,
		req.CarBrand,
		req.Model,
		req.Year,
		req.FuelType,
		req.City,
	).Scan(&req.ID, &req.CreatedAt))
}

func (r *scrapRepository) List(ctx context.Context, page Page) ([]domain.ScrapRequest, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM scrap_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
        SELECT id, name, phone_number, email, car_brand, model, year, fuel_type, city, created_at
        FROM scrap_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.ScrapRequest
	for rows.Next() {
		var req domain.ScrapRequest
		if err := rows.Scan(
			&req.ID,
			&req.Name,
			&req.PhoneNumber,
			&req.Email,
			&req.CarBrand,
			&req.Model,
			&req.Year,
			&req.FuelType,
			&req.City,
			&req.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, req)
	}
	return result, total, rows.Err()
}
