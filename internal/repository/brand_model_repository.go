package repository

import (
	"context"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// BrandModelRepository manages model lines under a brand.
type BrandModelRepository interface {
	Create(ctx context.Context, model *domain.BrandModel) error
	Update(ctx context.Context, model *domain.BrandModel) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, tx persistence.Tx, id string) (*domain.BrandModel, error)
	ListByBrand(ctx context.Context, brandID string) ([]domain.BrandModel, error)
}

type brandModelRepository struct {
	pool persistence.DBTX
}

// NewBrandModelRepository builds the repository.
func NewBrandModelRepository(pool persistence.DBTX) BrandModelRepository {
	return &brandModelRepository{pool: pool}
}

func (r *brandModelRepository) Create(ctx context.Context, model *domain.BrandModel) error {
	const query = `
        INSERT INTO brand_models (brand_id, name)
        VALUES ($1,$2)
        RETURNING id, created_at`
	return mapErr(r.pool.QueryRow(ctx, query, model.BrandID, model.Name).Scan(&model.ID, &model.CreatedAt))
}

func (r *brandModelRepository) Update(ctx context.Context, model *domain.BrandModel) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE brand_models SET name=$1 WHERE id=$2`, model.Name, model.ID)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *brandModelRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM brand_models WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID reads a model; inside a transaction the row is share-locked so
// it cannot be deleted before the transaction ends.
func (r *brandModelRepository) GetByID(ctx context.Context, tx persistence.Tx, id string) (*domain.BrandModel, error) {
	query := `SELECT id, brand_id, name, created_at FROM brand_models WHERE id=$1`
	if tx != nil {
		query += ` FOR SHARE`
	}
	var model domain.BrandModel
	if err := persistence.Conn(r.pool, tx).QueryRow(ctx, query, id).Scan(
		&model.ID,
		&model.BrandID,
		&model.Name,
		&model.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &model, nil
}

func (r *brandModelRepository) ListByBrand(ctx context.Context, brandID string) ([]domain.BrandModel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, brand_id, name, created_at FROM brand_models WHERE brand_id=$1 ORDER BY name ASC`, brandID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.BrandModel
	for rows.Next() {
		var model domain.BrandModel
		if err := rows.Scan(&model.ID, &model.BrandID, &model.Name, &model.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, rows.Err()
}
