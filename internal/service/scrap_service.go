package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

// ScrapService collects scrap quote requests.
type ScrapService struct {
	repo   repository.ScrapRepository
	logger *zap.Logger
}

// ScrapInput is the public scrap quote form.
type ScrapInput struct {
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	CarBrand    string `json:"carBrand" validate:"required"`
	Model       string `json:"model" validate:"required"`
	Year        int    `json:"year" validate:"required,min=1900,max=2100"`
	FuelType    string `json:"fuelType" validate:"required"`
	City        string `json:"city" validate:"required"`
}

// NewScrapService constructs the service.
func NewScrapService(repo repository.ScrapRepository, logger *zap.Logger) *ScrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScrapService{repo: repo, logger: logger}
}

// Create stores a scrap request.
func (s *ScrapService) Create(ctx context.Context, input ScrapInput) (*domain.ScrapRequest, error) {
	for _, f := range []*string{&input.Name, &input.PhoneNumber, &input.Email, &input.CarBrand, &input.Model, &input.FuelType, &input.City} {
		*f = strings.TrimSpace(*f)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	req := &domain.ScrapRequest{
		Name:        input.Name,
		PhoneNumber: input.PhoneNumber,
		Email:       input.Email,
		CarBrand:    input.CarBrand,
		Model:       input.Model,
		Year:        input.Year,
		FuelType:    input.FuelType,
		City:        input.City,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, mapRepoErr(err, "scrap request")
	}
	s.logger.Info("scrap request created", zap.String("scrap_request_id", req.ID))
	return req, nil
}

// List pages through scrap requests, newest first.
func (s *ScrapService) List(ctx context.Context, q PageQuery) (*PageResult[domain.ScrapRequest], error) {
	items, total, err := s.repo.List(ctx, q.repo())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newPageResult(items, total, q), nil
}
