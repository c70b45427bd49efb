package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// CarFilter narrows listing queries.
type CarFilter struct {
	BrandID     *string
	OnlyVisible bool
	Page
}

// CarRepository encapsulates listing persistence.
type CarRepository interface {
	Create(ctx context.Context, tx persistence.Tx, car *domain.Car) error
	Update(ctx context.Context, car *domain.Car) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Car, error)
	List(ctx context.Context, filter CarFilter) ([]domain.Car, int, error)
	SetEnabledByBrand(ctx context.Context, tx persistence.Tx, brandID string, enabled bool) (int64, error)
}

type carRepository struct {
	pool persistence.DBTX
}

// NewCarRepository instantiates repository.
func NewCarRepository(pool persistence.DBTX) CarRepository {
	return &carRepository{pool: pool}
}

const carColumns = `id, brand_id, model_id, year, price, mileage, fuel_type, transmission, color, condition,
               body_type, city, images, description, added_by, is_approved, is_featured, is_sold, is_enabled,
               sell_request_id, created_at, updated_at`

func (r *carRepository) Create(ctx context.Context, tx persistence.Tx, car *domain.Car) error {
	const query = `
        INSERT INTO cars (brand_id, model_id, year, price, mileage, fuel_type, transmission, color, condition,
            body_type, city, images, description, added_by, is_approved, is_featured, is_sold, is_enabled, sell_request_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id, created_at, updated_at`
	if car.Images == nil {
		car.Images = []string{}
	}
	return mapErr(persistence.Conn(r.pool, tx).QueryRow(ctx, query,
		car.BrandID,
		car.ModelID,
		car.Year,
		car.Price,
		car.Mileage,
		car.FuelType,
		car.Transmission,
		car.Color,
		car.Condition,
		car.BodyType,
		car.City,
		car.Images,
		car.Description,
		car.AddedBy,
		car.IsApproved,
		car.IsFeatured,
		car.IsSold,
		car.IsEnabled,
		car.SellRequestID,
	).Scan(&car.ID, &car.CreatedAt, &car.UpdatedAt))
}

func (r *carRepository) Update(ctx context.Context, car *domain.Car) error {
	const query = `
        UPDATE cars SET price=$1, mileage=$2, color=$3, city=$4, description=$5, images=$6,
            is_featured=$7, is_sold=$8, is_enabled=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return mapErr(r.pool.QueryRow(ctx, query,
		car.Price,
		car.Mileage,
		car.Color,
		car.City,
		car.Description,
		car.Images,
		car.IsFeatured,
		car.IsSold,
		car.IsEnabled,
		car.ID,
	).Scan(&car.UpdatedAt))
}

func (r *carRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cars WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *carRepository) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	return scanCar(r.pool.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id=$1`, id))
}

func (r *carRepository) List(ctx context.Context, filter CarFilter) ([]domain.Car, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.BrandID != nil {
		args = append(args, *filter.BrandID)
		clauses = append(clauses, fmt.Sprintf("brand_id=$%d", len(args)))
	}
	if filter.OnlyVisible {
		clauses = append(clauses, "is_approved AND is_enabled")
	}
	where := strings.Join(clauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cars WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		carColumns, where, page.Limit, page.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *car)
	}
	return result, total, rows.Err()
}

func (r *carRepository) SetEnabledByBrand(ctx context.Context, tx persistence.Tx, brandID string, enabled bool) (int64, error) {
	cmd, err := persistence.Conn(r.pool, tx).Exec(ctx,
		`UPDATE cars SET is_enabled=$1, updated_at=NOW() WHERE brand_id=$2`, enabled, brandID)
	if err != nil {
		return 0, mapErr(err)
	}
	return cmd.RowsAffected(), nil
}

func scanCar(row pgx.Row) (*domain.Car, error) {
	var car domain.Car
	if err := row.Scan(
		&car.ID,
		&car.BrandID,
		&car.ModelID,
		&car.Year,
		&car.Price,
		&car.Mileage,
		&car.FuelType,
		&car.Transmission,
		&car.Color,
		&car.Condition,
		&car.BodyType,
		&car.City,
		&car.Images,
		&car.Description,
		&car.AddedBy,
		&car.IsApproved,
		&car.IsFeatured,
		&car.IsSold,
		&car.IsEnabled,
		&car.SellRequestID,
		&car.CreatedAt,
		&car.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &car, nil
}
