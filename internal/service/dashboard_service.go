package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

const growthWindow = 30 * 24 * time.Hour

// DashboardStats summarises marketplace activity for admins.
type DashboardStats struct {
	TotalCars            int     `json:"totalCars"`
	CarGrowth            float64 `json:"carGrowth"`
	TotalEnquiries       int     `json:"totalEnquiries"`
	EnquiryGrowth        float64 `json:"enquiryGrowth"`
	ContactedEnquiries   int     `json:"contactedEnquiries"`
	TotalSellRequests    int     `json:"totalSellRequests"`
	SellRequestGrowth    float64 `json:"sellRequestGrowth"`
	ApprovedSellRequests int     `json:"approvedSellRequests"`
	TotalBrands          int     `json:"totalBrands"`
	BrandGrowth          float64 `json:"brandGrowth"`
}

// DashboardService computes admin dashboard figures.
type DashboardService struct {
	stats repository.StatsRepository
	now   func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(stats repository.StatsRepository) *DashboardService {
	return &DashboardService{stats: stats, now: time.Now}
}

// Stats compares the last 30 days against the 30 days before.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	now := s.now().UTC()
	currentFrom := now.Add(-growthWindow)
	previousFrom := now.Add(-2 * growthWindow)

	counts, err := s.stats.Counts(ctx, currentFrom, previousFrom)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &DashboardStats{
		TotalCars:            counts.Cars.Total,
		CarGrowth:            growth(counts.Cars),
		TotalEnquiries:       counts.Enquiries.Total,
		EnquiryGrowth:        growth(counts.Enquiries),
		ContactedEnquiries:   counts.ContactedEnquiries,
		TotalSellRequests:    counts.SellRequests.Total,
		SellRequestGrowth:    growth(counts.SellRequests),
		ApprovedSellRequests: counts.ApprovedSellRequests,
		TotalBrands:          counts.Brands.Total,
		BrandGrowth:          growth(counts.Brands),
	}, nil
}

func growth(w domain.WindowCount) float64 {
	if w.Previous == 0 {
		if w.Current > 0 {
			return 100
		}
		return 0
	}
	pct := float64(w.Current-w.Previous) / float64(w.Previous) * 100
	return math.Round(pct*100) / 100
}
