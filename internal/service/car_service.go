package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/media"
	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

// CarService manages admin-created listings and public browsing.
type CarService struct {
	cars     repository.CarRepository
	requests repository.SellRequestRepository
	catalog  *CatalogService
	media    media.Store
	logger   *zap.Logger
}

// CarDependencies bundles collaborators for the car service.
type CarDependencies struct {
	CarRepo repository.CarRepository
	// SellRequestRepo lets image cleanup skip files still referenced by
	// the sell request a listing was derived from.
	SellRequestRepo repository.SellRequestRepository
	Catalog         *CatalogService
	Media           media.Store
	Logger          *zap.Logger
}

// CarQuery filters listing pages. Hidden listings are only returned when
// IncludeHidden is set.
type CarQuery struct {
	BrandID       *string
	IncludeHidden bool
	PageQuery
}

// CarInput is the admin create payload.
type CarInput struct {
	BrandID      string               `json:"brandId" validate:"required"`
	ModelID      string               `json:"modelId" validate:"required"`
	Year         int                  `json:"year" validate:"required,min=1900,max=2100"`
	Price        int64                `json:"price" validate:"min=0"`
	Mileage      *int                 `json:"mileage" validate:"omitempty,min=0"`
	FuelType     *domain.FuelType     `json:"fuelType"`
	Transmission *domain.Transmission `json:"transmission"`
	Color        *string              `json:"color"`
	Condition    *domain.CarCondition `json:"condition"`
	BodyType     *string              `json:"bodyType"`
	City         *string              `json:"city"`
	Description  *string              `json:"description"`
	IsFeatured   bool                 `json:"isFeatured"`
	IsSold       bool                 `json:"isSold"`
}

// CarUpdate changes the set fields of a listing.
type CarUpdate struct {
	Price       *int64  `json:"price" validate:"omitempty,min=0"`
	Mileage     *int    `json:"mileage" validate:"omitempty,min=0"`
	Color       *string `json:"color"`
	City        *string `json:"city"`
	Description *string `json:"description"`
	IsFeatured  *bool   `json:"isFeatured"`
	IsSold      *bool   `json:"isSold"`
	IsEnabled   *bool   `json:"isEnable"`
}

// NewCarService constructs the service.
func NewCarService(deps CarDependencies) *CarService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarService{
		cars:     deps.CarRepo,
		requests: deps.SellRequestRepo,
		catalog:  deps.Catalog,
		media:    deps.Media,
		logger:   logger,
	}
}

// List pages through listings, newest first.
func (s *CarService) List(ctx context.Context, q CarQuery) (*PageResult[domain.Car], error) {
	cars, total, err := s.cars.List(ctx, repository.CarFilter{
		BrandID:     q.BrandID,
		OnlyVisible: !q.IncludeHidden,
		Page:        q.PageQuery.repo(),
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newPageResult(cars, total, q.PageQuery), nil
}

// Get returns a listing. Hidden listings look missing to non-admins.
func (s *CarService) Get(ctx context.Context, id string, includeHidden bool) (*domain.Car, error) {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "car")
	}
	if !includeHidden && !car.Visible() {
		return nil, apperrors.NewNotFound("car", nil)
	}
	return car, nil
}

// Create validates and persists an admin listing. Uploaded images are
// deleted when creation fails.
func (s *CarService) Create(ctx context.Context, adminID string, input CarInput, images []string) (*domain.Car, error) {
	car, err := s.build(ctx, adminID, input, images)
	if err == nil {
		err = mapRepoErr(s.cars.Create(ctx, nil, car), "car")
	}
	if err != nil {
		media.DeleteAll(ctx, s.media, images, s.logger)
		return nil, err
	}
	return car, nil
}

func (s *CarService) build(ctx context.Context, adminID string, input CarInput, images []string) (*domain.Car, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.FuelType != nil && !input.FuelType.Valid() {
		return nil, apperrors.NewValidationError("invalid fuel type", map[string]any{"fuelType": *input.FuelType})
	}
	if input.Transmission != nil && !input.Transmission.Valid() {
		return nil, apperrors.NewValidationError("invalid transmission", map[string]any{"transmission": *input.Transmission})
	}
	condition := domain.CarConditionUsed
	if input.Condition != nil {
		if !input.Condition.Valid() {
			return nil, apperrors.NewValidationError("invalid condition", map[string]any{"condition": *input.Condition})
		}
		condition = *input.Condition
	}

	if _, err := s.catalog.ResolveBrand(ctx, input.BrandID); err != nil {
		return nil, unknownReference(err, "brand", input.BrandID)
	}
	if _, err := s.catalog.ResolveModel(ctx, input.ModelID, input.BrandID); err != nil {
		return nil, unknownReference(err, "model", input.ModelID)
	}

	return &domain.Car{
		BrandID:      input.BrandID,
		ModelID:      input.ModelID,
		Year:         input.Year,
		Price:        input.Price,
		Mileage:      input.Mileage,
		FuelType:     input.FuelType,
		Transmission: input.Transmission,
		Color:        trimPtr(input.Color),
		Condition:    condition,
		BodyType:     trimPtr(input.BodyType),
		City:         trimPtr(input.City),
		Images:       images,
		Description:  trimPtr(input.Description),
		AddedBy:      adminID,
		IsApproved:   true,
		IsFeatured:   input.IsFeatured,
		IsSold:       input.IsSold,
		IsEnabled:    true,
	}, nil
}

// Update applies update. Non-empty images replace the current set; the old
// files are removed once the row is saved.
func (s *CarService) Update(ctx context.Context, id string, update CarUpdate, images []string) (*domain.Car, error) {
	if err := validateInput(update); err != nil {
		media.DeleteAll(ctx, s.media, images, s.logger)
		return nil, err
	}
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		media.DeleteAll(ctx, s.media, images, s.logger)
		return nil, mapRepoErr(err, "car")
	}

	if update.Price != nil {
		car.Price = *update.Price
	}
	if update.Mileage != nil {
		car.Mileage = update.Mileage
	}
	if update.Color != nil {
		car.Color = trimPtr(update.Color)
	}
	if update.City != nil {
		car.City = trimPtr(update.City)
	}
	if update.Description != nil {
		car.Description = trimPtr(update.Description)
	}
	if update.IsFeatured != nil {
		car.IsFeatured = *update.IsFeatured
	}
	if update.IsSold != nil {
		car.IsSold = *update.IsSold
	}
	if update.IsEnabled != nil {
		car.IsEnabled = *update.IsEnabled
	}
	var replaced []string
	if len(images) > 0 {
		replaced = car.Images
		car.Images = images
	}

	if err := s.cars.Update(ctx, car); err != nil {
		media.DeleteAll(ctx, s.media, images, s.logger)
		return nil, mapRepoErr(err, "car")
	}
	media.DeleteAll(ctx, s.media, s.releasable(ctx, car, replaced), s.logger)
	return car, nil
}

// Delete removes a listing and then its images.
func (s *CarService) Delete(ctx context.Context, id string) error {
	car, err := s.cars.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err, "car")
	}
	if err := s.cars.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "car")
	}
	media.DeleteAll(ctx, s.media, s.releasable(ctx, car, car.Images), s.logger)
	return nil
}

// releasable drops the refs shared with the sell request car was derived
// from. When that request cannot be read, nothing is released.
func (s *CarService) releasable(ctx context.Context, car *domain.Car, refs []string) []string {
	if car.SellRequestID == nil || len(refs) == 0 {
		return refs
	}
	if s.requests == nil {
		return nil
	}
	req, err := s.requests.GetByID(ctx, *car.SellRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return refs
		}
		s.logger.Warn("keeping listing images; sell request lookup failed",
			zap.String("car_id", car.ID),
			zap.String("sell_request_id", *car.SellRequestID),
			zap.Error(err))
		return nil
	}
	shared := make(map[string]struct{}, len(req.Images))
	for _, ref := range req.Images {
		shared[ref] = struct{}{}
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := shared[ref]; !ok {
			out = append(out, ref)
		}
	}
	return out
}

// unknownReference turns a NOT_FOUND from catalog resolution into an
// UNKNOWN_REFERENCE validation failure.
func unknownReference(err error, kind, id string) error {
	if apperrors.IsCode(err, "NOT_FOUND") {
		return apperrors.NewUnknownReference("unknown "+kind, map[string]any{kind + "Id": id})
	}
	return err
}
