package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository"
)

// UserRepository implements repository.UserRepository.
type UserRepository struct{ s *Store }

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.s.run(nil, func(j *journal) error {
		if r.emailTaken(user.Email, "") {
			return repository.ErrDuplicate
		}
		now := r.s.now()
		user.ID = newID()
		user.CreatedAt, user.UpdatedAt = now, now
		put(j, r.s.users, user.ID, *user)
		return nil
	})
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.s.run(nil, func(j *journal) error {
		current, ok := r.s.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if r.emailTaken(user.Email, user.ID) {
			return repository.ErrDuplicate
		}
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = r.s.now()
		put(j, r.s.users, user.ID, *user)
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var (
		user domain.User
		ok   bool
	)
	r.s.read(func() { user, ok = r.s.users[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var found *domain.User
	r.s.read(func() {
		for _, user := range r.s.users {
			if strings.EqualFold(user.Email, email) {
				u := user
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, user := range r.s.users {
		if id != exceptID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

// BrandRepository implements repository.BrandRepository.
type BrandRepository struct{ s *Store }

var _ repository.BrandRepository = (*BrandRepository)(nil)

func (r *BrandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	return r.s.run(nil, func(j *journal) error {
		if r.nameTaken(brand.Name, "") {
			return repository.ErrDuplicate
		}
		now := r.s.now()
		brand.ID = newID()
		brand.CreatedAt, brand.UpdatedAt = now, now
		put(j, r.s.brands, brand.ID, *brand)
		return nil
	})
}

func (r *BrandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	return r.s.run(nil, func(j *journal) error {
		current, ok := r.s.brands[brand.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if r.nameTaken(brand.Name, brand.ID) {
			return repository.ErrDuplicate
		}
		current.Name = brand.Name
		current.Logo = brand.Logo
		current.Description = brand.Description
		current.UpdatedAt = r.s.now()
		brand.UpdatedAt = current.UpdatedAt
		put(j, r.s.brands, brand.ID, current)
		return nil
	})
}

func (r *BrandRepository) Delete(ctx context.Context, id string) error {
	return r.s.run(nil, func(j *journal) error {
		if _, ok := r.s.brands[id]; !ok {
			return repository.ErrNotFound
		}
		for _, car := range r.s.cars {
			if car.BrandID == id {
				return repository.ErrInUse
			}
		}
		for _, req := range r.s.sellRequests {
			if req.BrandID == id {
				return repository.ErrInUse
			}
		}
		for modelID, model := range r.s.models {
			if model.BrandID == id {
				remove(j, r.s.models, modelID)
			}
		}
		remove(j, r.s.brands, id)
		return nil
	})
}

func (r *BrandRepository) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	var (
		brand domain.Brand
		ok    bool
	)
	r.s.read(func() { brand, ok = r.s.brands[id] })
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &brand, nil
}

func (r *BrandRepository) List(ctx context.Context, page repository.Page) ([]domain.Brand, int, error) {
	var all []domain.Brand
	r.s.read(func() {
		for _, brand := range r.s.brands {
			all = append(all, brand)
		}
	})
	sort.Slice(all, func(i, k int) bool { return all[i].Name < all[k].Name })
	return paginate(all, page), len(all), nil
}

func (r *BrandRepository) SetEnabled(ctx context.Context, tx persistence.Tx, id string, enabled bool) (*domain.Brand, error) {
	var brand domain.Brand
	err := r.s.run(tx, func(j *journal) error {
		current, ok := r.s.brands[id]
		if !ok {
			return repository.ErrNotFound
		}
		current.IsEnabled = enabled
		current.UpdatedAt = r.s.now()
		put(j, r.s.brands, id, current)
		brand = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *BrandRepository) nameTaken(name, exceptID string) bool {
	for id, brand := range r.s.brands {
		if id != exceptID && brand.Name == name {
			return true
		}
	}
	return false
}

// BrandModelRepository implements repository.BrandModelRepository.
type BrandModelRepository struct{ s *Store }

var _ repository.BrandModelRepository = (*BrandModelRepository)(nil)

func (r *BrandModelRepository) Create(ctx context.Context, model *domain.BrandModel) error {
	return r.s.run(nil, func(j *journal) error {
		if _, ok := r.s.brands[model.BrandID]; !ok {
			return repository.ErrInUse
		}
		if r.nameTaken(model.BrandID, model.Name, "") {
			return repository.ErrDuplicate
		}
		model.ID = newID()
		model.CreatedAt = r.s.now()
		put(j, r.s.models, model.ID, *model)
		return nil
	})
}

func (r *BrandModelRepository) Update(ctx context.Context, model *domain.BrandModel) error {
	return r.s.run(nil, func(j *journal) error {
		current, ok := r.s.models[model.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if r.nameTaken(current.BrandID, model.Name, model.ID) {
			return repository.ErrDuplicate
		}
		current.Name = model.Name
		put(j, r.s.models, model.ID, current)
		return nil
	})
}

func (r *BrandModelRepository) Delete(ctx context.Context, id string) error {
	return r.s.run(nil, func(j *journal) error {
		if _, ok := r.s.models[id]; !ok {
			return repository.ErrNotFound
		}
		for _, car := range r.s.cars {
			if car.ModelID == id {
				return repository.ErrInUse
			}
		}
		for _, req := range r.s.sellRequests {
			if req.ModelID == id {
				return repository.ErrInUse
			}
		}
		remove(j, r.s.models, id)
		return nil
	})
}

func (r *BrandModelRepository) GetByID(ctx context.Context, tx persistence.Tx, id string) (*domain.BrandModel, error) {
	var model domain.BrandModel
	err := r.s.run(tx, func(*journal) error {
		current, ok := r.s.models[id]
		if !ok {
			return repository.ErrNotFound
		}
		model = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *BrandModelRepository) ListByBrand(ctx context.Context, brandID string) ([]domain.BrandModel, error) {
	var result []domain.BrandModel
	r.s.read(func() {
		for _, model := range r.s.models {
			if model.BrandID == brandID {
				result = append(result, model)
			}
		}
	})
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result, nil
}

func (r *BrandModelRepository) nameTaken(brandID, name, exceptID string) bool {
	for id, model := range r.s.models {
		if id != exceptID && model.BrandID == brandID && model.Name == name {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, page repository.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}
