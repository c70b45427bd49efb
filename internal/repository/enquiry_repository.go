package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// EnquiryFilter narrows enquiry listings.
type EnquiryFilter struct {
	Type *domain.EnquiryType
	Page
}

// EnquiryRepository stores buyer enquiries and bids.
type EnquiryRepository interface {
	Create(ctx context.Context, enquiry *domain.Enquiry) error
	GetByID(ctx context.Context, id string) (*domain.Enquiry, error)
	List(ctx context.Context, filter EnquiryFilter) ([]domain.Enquiry, int, error)
	UpdateStatus(ctx context.Context, id string, status domain.EnquiryStatus) (*domain.Enquiry, error)
}

type enquiryRepository struct {
	pool persistence.DBTX
}

// NewEnquiryRepository builds repository.
func NewEnquiryRepository(pool persistence.DBTX) EnquiryRepository {
	return &enquiryRepository{pool: pool}
}

const enquiryColumns = `id, car_id, type, name, email, phone, message, price, status, created_at`

func (r *enquiryRepository) Create(ctx context.Context, enquiry *domain.Enquiry) error {
	const query = `
        INSERT INTO enquiries (car_id, type, name, email, phone, message, price, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at`
	return mapErr(r.pool.QueryRow(ctx, query,
		enquiry.CarID,
		enquiry.Type,
		enquiry.Name,
		enquiry.Email,
		enquiry.Phone,
		enquiry.Message,
		enquiry.Price,
		enquiry.Status,
	).Scan(&enquiry.ID, &enquiry.CreatedAt))
}

func (r *enquiryRepository) GetByID(ctx context.Context, id string) (*domain.Enquiry, error) {
	return scanEnquiry(r.pool.QueryRow(ctx, `SELECT `+enquiryColumns+` FROM enquiries WHERE id=$1`, id))
}

func (r *enquiryRepository) List(ctx context.Context, filter EnquiryFilter) ([]domain.Enquiry, int, error) {
	where := "1=1"
	args := []any{}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		where = fmt.Sprintf("type=$%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enquiries WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM enquiries WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		enquiryColumns, where, page.Limit, page.Offset), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Enquiry
	for rows.Next() {
		enquiry, err := scanEnquiry(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *enquiry)
	}
	return result, total, rows.Err()
}

func (r *enquiryRepository) UpdateStatus(ctx context.Context, id string, status domain.EnquiryStatus) (*domain.Enquiry, error) {
	return scanEnquiry(r.pool.QueryRow(ctx,
		`UPDATE enquiries SET status=$1 WHERE id=$2 RETURNING `+enquiryColumns, status, id))
}

func scanEnquiry(row pgx.Row) (*domain.Enquiry, error) {
	var enquiry domain.Enquiry
	if err := row.Scan(
		&enquiry.ID,
		&enquiry.CarID,
		&enquiry.Type,
		&enquiry.Name,
		&enquiry.Email,
		&enquiry.Phone,
		&enquiry.Message,
		&enquiry.Price,
		&enquiry.Status,
		&enquiry.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &enquiry, nil
}
