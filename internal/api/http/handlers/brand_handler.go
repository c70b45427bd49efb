package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/dto"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/service"
	apperrors "github.com/spec-kit/car-marketplace/pkg/util/errorutil"
)

const brandFolder = "brands"

// BrandHandler manages brands and their models.
type BrandHandler struct {
	catalog  *service.CatalogService
	uploader *Uploader
}

// NewBrandHandler constructs handler.
func NewBrandHandler(catalog *service.CatalogService, uploader *Uploader) *BrandHandler {
	return &BrandHandler{catalog: catalog, uploader: uploader}
}

func (h *BrandHandler) brand(b *domain.Brand) dto.BrandResponse {
	return dto.NewBrandResponse(b, h.uploader.Store())
}

// List handles GET /api/brand/all.
func (h *BrandHandler) List(c *fiber.Ctx) error {
	page, err := h.catalog.ListBrands(c.UserContext(), pageQuery(c))
	if err != nil {
		return err
	}
	return respondPage(c, page, h.brand)
}

// Get handles GET /api/brand/:id.
func (h *BrandHandler) Get(c *fiber.Ctx) error {
	brand, err := h.catalog.ResolveBrand(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.brand(brand))
}

// Create handles POST /api/brand/create.
func (h *BrandHandler) Create(c *fiber.Ctx) error {
	var req dto.BrandRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	logo, err := h.uploader.SaveOne(c, "logo", brandFolder)
	if err != nil {
		return err
	}
	input := service.BrandInput{Description: req.Description, Logo: logo}
	if req.Name != nil {
		input.Name = *req.Name
	}
	brand, err := h.catalog.CreateBrand(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, h.brand(brand))
}

// Update handles PATCH /api/brand/:id.
func (h *BrandHandler) Update(c *fiber.Ctx) error {
	var req dto.BrandRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	logo, err := h.uploader.SaveOne(c, "logo", brandFolder)
	if err != nil {
		return err
	}
	brand, err := h.catalog.UpdateBrand(c.UserContext(), c.Params("id"), service.BrandUpdate{
		Name:        req.Name,
		Description: req.Description,
		Logo:        logo,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.brand(brand))
}

// Delete handles DELETE /api/brand/:id.
func (h *BrandHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.DeleteBrand(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}

// SetEnabled handles PATCH /api/brand/enableDisableBrand/:brandId.
func (h *BrandHandler) SetEnabled(c *fiber.Ctx) error {
	var req dto.BrandEnableRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.IsEnabled == nil {
		return apperrors.NewValidationError("isEnable is required", map[string]any{"isEnable": "required"})
	}
	brand, affected, err := h.catalog.SetBrandEnabled(c.UserContext(), c.Params("brandId"), *req.IsEnabled)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"brand": h.brand(brand), "carsUpdated": affected})
}

// ListModels handles GET /api/brand/model/:brandId.
func (h *BrandHandler) ListModels(c *fiber.Ctx) error {
	models, err := h.catalog.ListModels(c.UserContext(), c.Params("brandId"))
	if err != nil {
		return err
	}
	out := make([]dto.ModelResponse, 0, len(models))
	for i := range models {
		out = append(out, dto.NewModelResponse(&models[i]))
	}
	return respond(c, http.StatusOK, out)
}

// CreateModel handles POST /api/brand/model.
func (h *BrandHandler) CreateModel(c *fiber.Ctx) error {
	var req dto.ModelRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	model, err := h.catalog.CreateModel(c.UserContext(), req.BrandID, req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewModelResponse(model))
}

// RenameModel handles PATCH /api/brand/model/:id.
func (h *BrandHandler) RenameModel(c *fiber.Ctx) error {
	var req dto.ModelRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	model, err := h.catalog.RenameModel(c.UserContext(), c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewModelResponse(model))
}

// DeleteModel handles DELETE /api/brand/model/:id.
func (h *BrandHandler) DeleteModel(c *fiber.Ctx) error {
	if err := h.catalog.DeleteModel(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}
