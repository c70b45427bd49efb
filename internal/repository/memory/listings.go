package memory

import (
	"context"
	"sort"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository"
)

// CarRepository implements repository.CarRepository.
type CarRepository struct{ s *Store }

var _ repository.CarRepository = (*CarRepository)(nil)

func (r *CarRepository) Create(ctx context.Context, tx persistence.Tx, car *domain.Car) error {
	return r.s.run(tx, func(j *journal) error {
		if car.SellRequestID != nil {
			for _, existing := range r.s.cars {
				if existing.SellRequestID != nil && *existing.SellRequestID == *car.SellRequestID {
					return repository.ErrDuplicate
				}
			}
		}
		now := r.s.now()
		car.ID = newID()
		car.Images = cloneStrings(car.Images)
		car.CreatedAt, car.UpdatedAt = now, now
		stored := *car
		stored.Images = cloneStrings(car.Images)
		put(j, r.s.cars, car.ID, stored)
		return nil
	})
}

func (r *CarRepository) Update(ctx context.Context, car *domain.Car) error {
	return r.s.run(nil, func(j *journal) error {
		current, ok := r.s.cars[car.ID]
		if !ok {
			return repository.ErrNotFound
		}
		current.Price = car.Price
		current.Mileage = car.Mileage
		current.Color = car.Color
		current.City = car.City
		current.Description = car.Description
		current.Images = cloneStrings(car.Images)
		current.IsFeatured = car.IsFeatured
		current.IsSold = car.IsSold
		current.IsEnabled = car.IsEnabled
		current.UpdatedAt = r.s.now()
		car.UpdatedAt = current.UpdatedAt
		put(j, r.s.cars, car.ID, current)
		return nil
	})
}

func (r *CarRepository) Delete(ctx context.Context, id string) error {
	return r.s.run(nil, func(j *journal) error {
		if _, ok := r.s.cars[id]; !ok {
			return repository.ErrNotFound
		}
		for enquiryID, enquiry := range r.s.enquiries {
			if enquiry.CarID == id {
				remove(j, r.s.enquiries, enquiryID)
			}
		}
		remove(j, r.s.cars, id)
		return nil
	})
}

func (r *CarRepository) GetByID(ctx context.Context, id string) (*domain.Car, error) {
	var (
		car domain.Car
		ok  bool
	)
	r.s.read(func() { car, ok = r.s.cars[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	car.Images = cloneStrings(car.Images)
	return &car, nil
}

func (r *CarRepository) List(ctx context.Context, filter repository.CarFilter) ([]domain.Car, int, error) {
	var all []domain.Car
	r.s.read(func() {
		for _, car := range r.s.cars {
			if filter.BrandID != nil && car.BrandID != *filter.BrandID {
				continue
			}
			if filter.OnlyVisible && !(car.IsApproved && car.IsEnabled) {
				continue
			}
			car.Images = cloneStrings(car.Images)
			all = append(all, car)
		}
	})
	sort.Slice(all, func(i, k int) bool {
		return newerFirst(all[i].CreatedAt.UnixNano(), all[k].CreatedAt.UnixNano(), all[i].ID, all[k].ID)
	})
	return paginate(all, filter.Page), len(all), nil
}

func (r *CarRepository) SetEnabledByBrand(ctx context.Context, tx persistence.Tx, brandID string, enabled bool) (int64, error) {
	var affected int64
	err := r.s.run(tx, func(j *journal) error {
		now := r.s.now()
		for id, car := range r.s.cars {
			if car.BrandID != brandID {
				continue
			}
			car.IsEnabled = enabled
			car.UpdatedAt = now
			put(j, r.s.cars, id, car)
			affected++
		}
		return nil
	})
	return affected, err
}

// SellRequestRepository implements repository.SellRequestRepository.
type SellRequestRepository struct{ s *Store }

var _ repository.SellRequestRepository = (*SellRequestRepository)(nil)

func (r *SellRequestRepository) Create(ctx context.Context, tx persistence.Tx, req *domain.SellRequest) error {
	return r.s.run(tx, func(j *journal) error {
		if _, ok := r.s.brands[req.BrandID]; !ok {
			return repository.ErrInUse
		}
		if _, ok := r.s.models[req.ModelID]; !ok {
			return repository.ErrInUse
		}
		now := r.s.now()
		req.ID = newID()
		req.Images = cloneStrings(req.Images)
		req.CreatedAt, req.UpdatedAt = now, now
		stored := *req
		stored.Images = cloneStrings(req.Images)
		put(j, r.s.sellRequests, req.ID, stored)
		return nil
	})
}

func (r *SellRequestRepository) GetByID(ctx context.Context, id string) (*domain.SellRequest, error) {
	return r.get(nil, id)
}

func (r *SellRequestRepository) GetForUpdate(ctx context.Context, tx persistence.Tx, id string) (*domain.SellRequest, error) {
	return r.get(tx, id)
}

func (r *SellRequestRepository) get(tx persistence.Tx, id string) (*domain.SellRequest, error) {
	var req domain.SellRequest
	err := r.s.run(tx, func(*journal) error {
		current, ok := r.s.sellRequests[id]
		if !ok {
			return repository.ErrNotFound
		}
		req = current
		req.Images = cloneStrings(current.Images)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *SellRequestRepository) List(ctx context.Context, page repository.Page) ([]domain.SellRequest, int, error) {
	var all []domain.SellRequest
	r.s.read(func() {
		for _, req := range r.s.sellRequests {
			req.Images = cloneStrings(req.Images)
			all = append(all, req)
		}
	})
	sort.Slice(all, func(i, k int) bool {
		return newerFirst(all[i].CreatedAt.UnixNano(), all[k].CreatedAt.UnixNano(), all[i].ID, all[k].ID)
	})
	return paginate(all, page), len(all), nil
}

func (r *SellRequestRepository) ExistsForBrandModel(ctx context.Context, tx persistence.Tx, brandID, modelID string, statuses []domain.SellRequestStatus) (bool, error) {
	var exists bool
	err := r.s.run(tx, func(*journal) error {
		for _, req := range r.s.sellRequests {
			if req.BrandID != brandID || req.ModelID != modelID {
				continue
			}
			if len(statuses) == 0 || containsStatus(statuses, req.Status) {
				exists = true
				return nil
			}
		}
		return nil
	})
	return exists, err
}

// LockBrandModel only validates tx: the transaction already holds the
// store lock.
func (r *SellRequestRepository) LockBrandModel(ctx context.Context, tx persistence.Tx, brandID, modelID string) error {
	return r.s.run(tx, func(*journal) error { return nil })
}

func (r *SellRequestRepository) TransitionStatus(ctx context.Context, tx persistence.Tx, id string, from, to domain.SellRequestStatus) (*domain.SellRequest, error) {
	var req domain.SellRequest
	err := r.s.run(tx, func(j *journal) error {
		current, ok := r.s.sellRequests[id]
		if !ok {
			return repository.ErrNotFound
		}
		if current.Status != from {
			return repository.ErrStatusConflict
		}
		current.Status = to
		current.UpdatedAt = r.s.now()
		put(j, r.s.sellRequests, id, current)
		req = current
		req.Images = cloneStrings(current.Images)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func containsStatus(statuses []domain.SellRequestStatus, status domain.SellRequestStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func newerFirst(a, b int64, idA, idB string) bool {
	if a != b {
		return a > b
	}
	return idA > idB
}
