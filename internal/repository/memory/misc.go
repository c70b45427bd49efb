package memory

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/repository"
)

// EnquiryRepository implements repository.EnquiryRepository.
type EnquiryRepository struct{ s *Store }

var _ repository.EnquiryRepository = (*EnquiryRepository)(nil)

func (r *EnquiryRepository) Create(ctx context.Context, enquiry *domain.Enquiry) error {
	return r.s.run(nil, func(j *journal) error {
		if _, ok := r.s.cars[enquiry.CarID]; !ok {
			return repository.ErrInUse
		}
		enquiry.ID = newID()
		enquiry.CreatedAt = r.s.now()
		put(j, r.s.enquiries, enquiry.ID, *enquiry)
		return nil
	})
}

func (r *EnquiryRepository) GetByID(ctx context.Context, id string) (*domain.Enquiry, error) {
	var (
		enquiry domain.Enquiry
		ok      bool
	)
	r.s.read(func() { enquiry, ok = r.s.enquiries[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &enquiry, nil
}

func (r *EnquiryRepository) List(ctx context.Context, filter repository.EnquiryFilter) ([]domain.Enquiry, int, error) {
	var all []domain.Enquiry
	r.s.read(func() {
		for _, enquiry := range r.s.enquiries {
			if filter.Type != nil && enquiry.Type != *filter.Type {
				continue
			}
			all = append(all, enquiry)
		}
	})
	sort.Slice(all, func(i, k int) bool {
		return newerFirst(all[i].CreatedAt.UnixNano(), all[k].CreatedAt.UnixNano(), all[i].ID, all[k].ID)
	})
	return paginate(all, filter.Page), len(all), nil
}

func (r *EnquiryRepository) UpdateStatus(ctx context.Context, id string, status domain.EnquiryStatus) (*domain.Enquiry, error) {
	var enquiry domain.Enquiry
	err := r.s.run(nil, func(j *journal) error {
		current, ok := r.s.enquiries[id]
		if !ok {
			return repository.ErrNotFound
		}
		current.Status = status
		put(j, r.s.enquiries, id, current)
		enquiry = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &enquiry, nil
}

// ScrapRepository implements repository.ScrapRepository.
type ScrapRepository struct{ s *Store }

var _ repository.ScrapRepository = (*ScrapRepository)(nil)

func (r *ScrapRepository) Create(ctx context.Context, req *domain.ScrapRequest) error {
	return r.s.run(nil, func(j *journal) error {
		req.ID = newID()
		req.CreatedAt = r.s.now()
		put(j, r.s.scraps, req.ID, *req)
		return nil
	})
}

func (r *ScrapRepository) List(ctx context.Context, page repository.Page) ([]domain.ScrapRequest, int, error) {
	var all []domain.ScrapRequest
	r.s.read(func() {
		for _, req := range r.s.scraps {
			all = append(all, req)
		}
	})
	sort.Slice(all, func(i, k int) bool {
		return newerFirst(all[i].CreatedAt.UnixNano(), all[k].CreatedAt.UnixNano(), all[i].ID, all[k].ID)
	})
	return paginate(all, page), len(all), nil
}

// StatsRepository implements repository.StatsRepository.
type StatsRepository struct{ s *Store }

var _ repository.StatsRepository = (*StatsRepository)(nil)

func (r *StatsRepository) Counts(ctx context.Context, currentFrom, previousFrom time.Time) (*domain.DashboardCounts, error) {
	var c domain.DashboardCounts
	tally := func(w *domain.WindowCount, created time.Time) {
		w.Total++
		switch {
		case !created.Before(currentFrom):
			w.Current++
		case !created.Before(previousFrom):
			w.Previous++
		}
	}

	r.s.read(func() {
		for _, car := range r.s.cars {
			if car.IsEnabled {
				tally(&c.Cars, car.CreatedAt)
			}
		}
		for _, enquiry := range r.s.enquiries {
			tally(&c.Enquiries, enquiry.CreatedAt)
			if enquiry.Status == domain.EnquiryContacted {
				c.ContactedEnquiries++
			}
		}
		for _, req := range r.s.sellRequests {
			tally(&c.SellRequests, req.CreatedAt)
			if req.Status == domain.SellRequestApproved {
				c.ApprovedSellRequests++
			}
		}
		for _, brand := range r.s.brands {
			if brand.IsEnabled {
				tally(&c.Brands, brand.CreatedAt)
			}
		}
	})
	return &c, nil
}
