package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/media"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

// CatalogService manages brands and their models and resolves catalog
// references for listings and sell requests.
type CatalogService struct {
	brands repository.BrandRepository
	models repository.BrandModelRepository
	cars   repository.CarRepository
	tx     persistence.TxManager
	media  media.Store
	logger *zap.Logger
}

// CatalogDependencies bundles collaborators for the catalog service.
type CatalogDependencies struct {
	BrandRepo repository.BrandRepository
	ModelRepo repository.BrandModelRepository
	CarRepo   repository.CarRepository
	TxManager persistence.TxManager
	Media     media.Store
	Logger    *zap.Logger
}

// BrandInput creates a brand. Logo is a media reference already stored.
type BrandInput struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Logo        *string `json:"-"`
}

// BrandUpdate changes the set fields of a brand.
type BrandUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Logo        *string `json:"-"`
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		brands: deps.BrandRepo,
		models: deps.ModelRepo,
		cars:   deps.CarRepo,
		tx:     deps.TxManager,
		media:  deps.Media,
		logger: logger,
	}
}

// ResolveBrand returns the brand or a NOT_FOUND error.
func (s *CatalogService) ResolveBrand(ctx context.Context, id string) (*domain.Brand, error) {
	brand, err := s.brands.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "brand")
	}
	return brand, nil
}

// ResolveModel returns the model only if it belongs to brandID.
func (s *CatalogService) ResolveModel(ctx context.Context, id, brandID string) (*domain.BrandModel, error) {
	model, err := s.models.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoErr(err, "model")
	}
	if model.BrandID != brandID {
		return nil, apperrors.NewNotFound("model", map[string]any{"modelId": id, "brandId": brandID})
	}
	return model, nil
}

// ListBrands pages through brands ordered by name.
func (s *CatalogService) ListBrands(ctx context.Context, q PageQuery) (*PageResult[domain.Brand], error) {
	brands, total, err := s.brands.List(ctx, q.repo())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return newPageResult(brands, total, q), nil
}

// CreateBrand persists a brand. The logo is deleted when creation fails.
func (s *CatalogService) CreateBrand(ctx context.Context, input BrandInput) (*domain.Brand, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		s.discard(ctx, input.Logo)
		return nil, err
	}
	brand := &domain.Brand{
		Name:        input.Name,
		Description: trimPtr(input.Description),
		Logo:        input.Logo,
		IsEnabled:   true,
	}
	if err := s.brands.Create(ctx, brand); err != nil {
		s.discard(ctx, input.Logo)
		return nil, mapRepoErr(err, "brand")
	}
	return brand, nil
}

// UpdateBrand applies update. A replaced logo is deleted after the row is
// saved; a new logo is deleted if the save fails.
func (s *CatalogService) UpdateBrand(ctx context.Context, id string, update BrandUpdate) (*domain.Brand, error) {
	brand, err := s.brands.GetByID(ctx, id)
	if err != nil {
		s.discard(ctx, update.Logo)
		return nil, mapRepoErr(err, "brand")
	}

	oldLogo := brand.Logo
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			s.discard(ctx, update.Logo)
			return nil, apperrors.NewValidationError("name must not be empty", map[string]any{"name": "required"})
		}
		brand.Name = name
	}
	if update.Description != nil {
		brand.Description = trimPtr(update.Description)
	}
	if update.Logo != nil {
		brand.Logo = update.Logo
	}

	if err := s.brands.Update(ctx, brand); err != nil {
		s.discard(ctx, update.Logo)
		return nil, mapRepoErr(err, "brand")
	}
	if update.Logo != nil && oldLogo != nil && *oldLogo != *update.Logo {
		s.discard(ctx, oldLogo)
	}
	return brand, nil
}

// DeleteBrand removes a brand, its models and its logo. Brands still
// referenced by listings or sell requests cannot be deleted.
func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	brand, err := s.brands.GetByID(ctx, id)
	if err != nil {
		return mapRepoErr(err, "brand")
	}
	if err := s.brands.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "brand")
	}
	s.discard(ctx, brand.Logo)
	return nil
}

// SetBrandEnabled flips the brand flag and every listing of the brand in
// one transaction. It returns the number of listings updated.
func (s *CatalogService) SetBrandEnabled(ctx context.Context, id string, enabled bool) (*domain.Brand, int64, error) {
	var (
		brand    *domain.Brand
		affected int64
	)
	err := persistence.RunInTx(ctx, s.tx, func(tx persistence.Tx) error {
		var err error
		brand, err = s.brands.SetEnabled(ctx, tx, id, enabled)
		if err != nil {
			return mapRepoErr(err, "brand")
		}
		affected, err = s.cars.SetEnabledByBrand(ctx, tx, id, enabled)
		if err != nil {
			return mapRepoErr(err, "car")
		}
		return nil
	})
	if err != nil {
		return nil, 0, mapRepoErr(err, "brand")
	}
	s.logger.Info("brand visibility changed",
		zap.String("brand_id", id),
		zap.Bool("enabled", enabled),
		zap.Int64("cars_updated", affected))
	return brand, affected, nil
}

// ListModels returns the models of a brand ordered by name.
func (s *CatalogService) ListModels(ctx context.Context, brandID string) ([]domain.BrandModel, error) {
	if _, err := s.ResolveBrand(ctx, brandID); err != nil {
		return nil, err
	}
	models, err := s.models.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if models == nil {
		models = []domain.BrandModel{}
	}
	return models, nil
}

// CreateModel adds a model to a brand. Names are unique within a brand.
func (s *CatalogService) CreateModel(ctx context.Context, brandID, name string) (*domain.BrandModel, error) {
	brandID, name = strings.TrimSpace(brandID), strings.TrimSpace(name)
	if brandID == "" || name == "" {
		return nil, apperrors.NewValidationError("name and brand are required", nil)
	}
	if _, err := s.ResolveBrand(ctx, brandID); err != nil {
		return nil, err
	}
	model := &domain.BrandModel{BrandID: brandID, Name: name}
	if err := s.models.Create(ctx, model); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("model already exists", map[string]any{"name": name})
		}
		return nil, mapRepoErr(err, "model")
	}
	return model, nil
}

// RenameModel changes a model's name.
func (s *CatalogService) RenameModel(ctx context.Context, id, name string) (*domain.BrandModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"name": "required"})
	}
	model, err := s.models.GetByID(ctx, nil, id)
	if err != nil {
		return nil, mapRepoErr(err, "model")
	}
	model.Name = name
	if err := s.models.Update(ctx, model); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("model already exists", map[string]any{"name": name})
		}
		return nil, mapRepoErr(err, "model")
	}
	return model, nil
}

// DeleteModel removes a model that no listing or sell request references.
func (s *CatalogService) DeleteModel(ctx context.Context, id string) error {
	return mapRepoErr(s.models.Delete(ctx, id), "model")
}

func (s *CatalogService) discard(ctx context.Context, ref *string) {
	if ref == nil || s.media == nil {
		return
	}
	media.DeleteAll(ctx, s.media, []string{*ref}, s.logger)
}
