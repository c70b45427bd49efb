package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// BrandRepository manages catalog brands.
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	Update(ctx context.Context, brand *domain.Brand) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Brand, error)
	List(ctx context.Context, page Page) ([]domain.Brand, int, error)
	SetEnabled(ctx context.Context, tx persistence.Tx, id string, enabled bool) (*domain.Brand, error)
}

type brandRepository struct {
	pool persistence.DBTX
}

// NewBrandRepository builds the repository.
func NewBrandRepository(pool persistence.DBTX) BrandRepository {
	return &brandRepository{pool: pool}
}

const brandColumns = `id, name, logo, description, is_enabled, created_at, updated_at`

func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	const query = `
        INSERT INTO brands (name, logo, description, is_enabled)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return mapErr(r.pool.QueryRow(ctx, query,
		brand.Name,
		brand.Logo,
		brand.Description,
		brand.IsEnabled,
	).Scan(&brand.ID, &brand.CreatedAt, &brand.UpdatedAt))
}

func (r *brandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	const query = `
        UPDATE brands SET name=$1, logo=$2, description=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return mapErr(r.pool.QueryRow(ctx, query,
		brand.Name,
		brand.Logo,
		brand.Description,
		brand.ID,
	).Scan(&brand.UpdatedAt))
}

func (r *brandRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *brandRepository) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id=$1`, id)
	return scanBrand(row)
}

func (r *brandRepository) List(ctx context.Context, page Page) ([]domain.Brand, int, error) {
	page = page.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM brands`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+brandColumns+` FROM brands ORDER BY name ASC LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Brand
	for rows.Next() {
		brand, err := scanBrand(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *brand)
	}
	return result, total, rows.Err()
}

func (r *brandRepository) SetEnabled(ctx context.Context, tx persistence.Tx, id string, enabled bool) (*domain.Brand, error) {
	row := persistence.Conn(r.pool, tx).QueryRow(ctx,
		`UPDATE brands SET is_enabled=$1, updated_at=NOW() WHERE id=$2 RETURNING `+brandColumns,
		enabled, id)
	return scanBrand(row)
}

func scanBrand(row pgx.Row) (*domain.Brand, error) {
	var brand domain.Brand
	if err := row.Scan(
		&brand.ID,
		&brand.Name,
		&brand.Logo,
		&brand.Description,
		&brand.IsEnabled,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &brand, nil
}
