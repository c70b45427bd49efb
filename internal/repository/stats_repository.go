package repository

import (
	"context"
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
)

// StatsRepository computes dashboard aggregates.
type StatsRepository interface {
	Counts(ctx context.Context, currentFrom, previousFrom time.Time) (*domain.DashboardCounts, error)
}

type statsRepository struct {
	pool persistence.DBTX
}

// NewStatsRepository builds repository.
func NewStatsRepository(pool persistence.DBTX) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) Counts(ctx context.Context, currentFrom, previousFrom time.Time) (*domain.DashboardCounts, error) {
	const query = `
        SELECT
            (SELECT COUNT(*) FROM cars WHERE is_enabled),
            (SELECT COUNT(*) FROM cars WHERE is_enabled AND created_at >= $1),
            (SELECT COUNT(*) FROM cars WHERE is_enabled AND created_at >= $2 AND created_at < $1),
            (SELECT COUNT(*) FROM enquiries),
            (SELECT COUNT(*) FROM enquiries WHERE created_at >= $1),
            (SELECT COUNT(*) FROM enquiries WHERE created_at >= $2 AND created_at < $1),
            (SELECT COUNT(*) FROM enquiries WHERE status = 'contacted'),
            (SELECT COUNT(*) FROM sell_requests),
            (SELECT COUNT(*) FROM sell_requests WHERE created_at >= $1),
            (SELECT COUNT(*) FROM sell_requests WHERE created_at >= $2 AND created_at < $1),
            (SELECT COUNT(*) FROM sell_requests WHERE status = 'approved'),
            (SELECT COUNT(*) FROM brands WHERE is_enabled),
            (SELECT COUNT(*) FROM brands WHERE is_enabled AND created_at >= $1),
            (SELECT COUNT(*) FROM brands WHERE is_enabled AND created_at >= $2 AND created_at < $1)`

	var c domain.DashboardCounts
	if err := r.pool.QueryRow(ctx, query, currentFrom, previousFrom).Scan(
		&c.Cars.Total, &c.Cars.Current, &c.Cars.Previous,
		&c.Enquiries.Total, &c.Enquiries.Current, &c.Enquiries.Previous, &c.ContactedEnquiries,
		&c.SellRequests.Total, &c.SellRequests.Current, &c.SellRequests.Previous, &c.ApprovedSellRequests,
		&c.Brands.Total, &c.Brands.Current, &c.Brands.Previous,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
