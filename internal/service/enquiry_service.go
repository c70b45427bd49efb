package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/events"
	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

// EnquiryService records buyer enquiries and bids on listings.
type EnquiryService struct {
	enquiries  repository.EnquiryRepository
	cars       repository.CarRepository
	catalog    *CatalogService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EnquiryDependencies bundles collaborators.
type EnquiryDependencies struct {
	EnquiryRepo repository.EnquiryRepository
	CarRepo     repository.CarRepository
	Catalog     *CatalogService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// EnquiryInput is the public enquiry form.
type EnquiryInput struct {
	CarID   string              `json:"carId" validate:"required"`
	Name    string              `json:"name" validate:"required"`
	Email   string              `json:"email" validate:"required,email"`
	Phone   string              `json:"phone" validate:"required"`
	Type    *domain.EnquiryType `json:"typeData"`
	Message *string             `json:"message"`
	Price   *int64              `json:"price" validate:"omitempty,min=1"`
}

// EnquiryQuery filters the admin list.
type EnquiryQuery struct {
	Type *string
	PageQuery
}

// NewEnquiryService constructs the service.
func NewEnquiryService(deps EnquiryDependencies) *EnquiryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnquiryService{
		enquiries:  deps.EnquiryRepo,
		cars:       deps.CarRepo,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create stores an enquiry against an existing car. Bids must carry a price.
func (s *EnquiryService) Create(ctx context.Context, input EnquiryInput) (*domain.Enquiry, error) {
	input.CarID = strings.TrimSpace(input.CarID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	kind := domain.EnquiryTypeEnquiry
	if input.Type != nil && *input.Type != "" {
		kind = domain.EnquiryType(strings.ToLower(strings.TrimSpace(string(*input.Type))))
	}
	if !kind.Valid() {
		return nil, apperrors.NewValidationError("invalid enquiry type", map[string]any{"typeData": string(kind)})
	}
	if kind == domain.EnquiryTypeBidding && input.Price == nil {
		return nil, apperrors.NewValidationError("price is required for bidding", map[string]any{"price": "required"})
	}

	car, err := s.cars.GetByID(ctx, input.CarID)
	if err != nil {
		return nil, mapRepoErr(err, "car")
	}

	enquiry := &domain.Enquiry{
		CarID:   car.ID,
		Type:    kind,
		Name:    input.Name,
		Email:   input.Email,
		Phone:   input.Phone,
		Message: trimPtr(input.Message),
		Price:   input.Price,
		Status:  domain.EnquiryPending,
	}
	if err := s.enquiries.Create(ctx, enquiry); err != nil {
		return nil, mapRepoErr(err, "enquiry")
	}

	s.logger.Info("enquiry created",
		zap.String("enquiry_id", enquiry.ID),
		zap.String("car_id", car.ID),
		zap.String("type", string(kind)))
	s.publishCreated(ctx, enquiry, car)
	return enquiry, nil
}

func (s *EnquiryService) publishCreated(ctx context.Context, enquiry *domain.Enquiry, car *domain.Car) {
	if s.dispatcher == nil {
		return
	}
	price := car.Price
	listing := events.ListingSummary{Year: car.Year, Price: &price}
	if s.catalog != nil {
		if brand, err := s.catalog.ResolveBrand(ctx, car.BrandID); err == nil {
			listing.BrandName = brand.Name
		}
		if model, err := s.catalog.ResolveModel(ctx, car.ModelID, car.BrandID); err == nil {
			listing.ModelName = model.Name
		}
	}
	event := events.New(events.EventEnquiryCreated, enquiry.ID, events.Actor{}, events.EnquiryCreatedPayload{
		CarID:   car.ID,
		Type:    enquiry.Type,
		Name:    enquiry.Name,
		Email:   enquiry.Email,
		Phone:   enquiry.Phone,
		Message: enquiry.Message,
		Price:   enquiry.Price,
		Listing: listing,
	})
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// List pages through enquiries, optionally filtered by type.
func (s *EnquiryService) List(ctx context.Context, q EnquiryQuery) (*PageResult[domain.Enquiry], error) {
	filter := repository.EnquiryFilter{Page: q.repo()}
	if q.Type != nil && strings.TrimSpace(*q.Type) != "" {
		kind := domain.EnquiryType(strings.ToLower(strings.TrimSpace(*q.Type)))
		if !kind.Valid() {
			return nil, apperrors.NewValidationError("invalid enquiry type", map[string]any{"type": *q.Type})
		}
		filter.Type = &kind
	}
	items, total, err := s.enquiries.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newPageResult(items, total, q.PageQuery), nil
}

// UpdateStatus records admin follow-up on an enquiry.
func (s *EnquiryService) UpdateStatus(ctx context.Context, id, raw string) (*domain.Enquiry, error) {
	status := domain.EnquiryStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status must be pending, contacted or rejected",
			map[string]any{"status": raw})
	}
	enquiry, err := s.enquiries.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, mapRepoErr(err, "enquiry")
	}
	return enquiry, nil
}
