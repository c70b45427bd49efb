package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/dto"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/service"
)

const carFolder = "cars"

// CarHandler serves listings.
type CarHandler struct {
	cars     *service.CarService
	uploader *Uploader
}

// NewCarHandler constructs handler.
func NewCarHandler(cars *service.CarService, uploader *Uploader) *CarHandler {
	return &CarHandler{cars: cars, uploader: uploader}
}

func (h *CarHandler) car(car *domain.Car) dto.CarResponse {
	return dto.NewCarResponse(car, h.uploader.Store())
}

// List handles GET /api/car/all. Admins also see hidden listings.
func (h *CarHandler) List(c *fiber.Ctx) error {
	page, err := h.cars.List(c.UserContext(), service.CarQuery{IncludeHidden: isAdmin(c), PageQuery: pageQuery(c)})
	if err != nil {
		return err
	}
	return respondPage(c, page, h.car)
}

// ListByBrand handles GET /api/car/brand/:brandId.
func (h *CarHandler) ListByBrand(c *fiber.Ctx) error {
	brandID := c.Params("brandId")
	page, err := h.cars.List(c.UserContext(), service.CarQuery{
		BrandID:       &brandID,
		IncludeHidden: isAdmin(c),
		PageQuery:     pageQuery(c),
	})
	if err != nil {
		return err
	}
	return respondPage(c, page, h.car)
}

// Get handles GET /api/car/:id.
func (h *CarHandler) Get(c *fiber.Ctx) error {
	car, err := h.cars.Get(c.UserContext(), c.Params("id"), isAdmin(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.car(car))
}

// Create handles POST /api/car/create.
func (h *CarHandler) Create(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CarCreateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	images, err := h.uploader.Save(c, "images", carFolder)
	if err != nil {
		return err
	}
	car, err := h.cars.Create(c.UserContext(), principal.UserID(), service.CarInput{
		BrandID:      req.BrandID,
		ModelID:      req.ModelID,
		Year:         req.Year,
		Price:        req.Price,
		Mileage:      req.Mileage,
		FuelType:     (*domain.FuelType)(blankToNil(req.FuelType)),
		Transmission: (*domain.Transmission)(blankToNil(req.Transmission)),
		Color:        req.Color,
		Condition:    (*domain.CarCondition)(blankToNil(req.Condition)),
		BodyType:     req.BodyType,
		City:         req.City,
		Description:  req.Description,
		IsFeatured:   req.IsFeatured,
		IsSold:       req.IsSold,
	}, images)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, h.car(car))
}

// Update handles PATCH /api/car/:id.
func (h *CarHandler) Update(c *fiber.Ctx) error {
	var req dto.CarUpdateRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	images, err := h.uploader.Save(c, "images", carFolder)
	if err != nil {
		return err
	}
	car, err := h.cars.Update(c.UserContext(), c.Params("id"), service.CarUpdate{
		Price:       req.Price,
		Mileage:     req.Mileage,
		Color:       req.Color,
		City:        req.City,
		Description: req.Description,
		IsFeatured:  req.IsFeatured,
		IsSold:      req.IsSold,
		IsEnabled:   req.IsEnabled,
	}, images)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.car(car))
}

// Delete handles DELETE /api/car/:id.
func (h *CarHandler) Delete(c *fiber.Ctx) error {
	if err := h.cars.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, fiber.Map{"id": c.Params("id")})
}
