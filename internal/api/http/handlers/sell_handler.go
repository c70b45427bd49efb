package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/dto"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/service"
)

const sellFolder = "sell-requests"

// SellHandler exposes sell request submission and moderation.
type SellHandler struct {
	sell     *service.SellRequestService
	uploader *Uploader
}

// NewSellHandler constructs handler.
func NewSellHandler(sell *service.SellRequestService, uploader *Uploader) *SellHandler {
	return &SellHandler{sell: sell, uploader: uploader}
}

func (h *SellHandler) request(r *domain.SellRequest) dto.SellRequestResponse {
	return dto.NewSellRequestResponse(r, h.uploader.Store())
}

// Submit handles POST /api/sell/car. Uploads are written first; the
// service removes them again if the request is rejected.
func (h *SellHandler) Submit(c *fiber.Ctx) error {
	var form dto.SellRequestForm
	if err := bindBody(c, &form); err != nil {
		return err
	}
	images, err := h.uploader.Save(c, "images", sellFolder)
	if err != nil {
		return err
	}
	req, err := h.sell.Submit(c.UserContext(), service.SubmitSellRequestInput{
		BrandID:        form.BrandID,
		ModelID:        form.ModelID,
		Year:           form.Year,
		ExpectedPrice:  form.ExpectedPrice,
		Mileage:        form.Mileage,
		FuelType:       (*domain.FuelType)(blankToNil(form.FuelType)),
		Transmission:   (*domain.Transmission)(blankToNil(form.Transmission)),
		Color:          form.Color,
		Condition:      (*domain.SellCondition)(blankToNil(form.Condition)),
		BodyType:       form.BodyType,
		AdditionalInfo: form.AdditionalInfo,
		SellerName:     form.SellerName,
		SellerEmail:    form.SellerEmail,
		SellerPhone:    form.SellerPhone,
	}, images)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, h.request(req))
}

// List handles GET /api/sell/car.
func (h *SellHandler) List(c *fiber.Ctx) error {
	page, err := h.sell.List(c.UserContext(), pageQuery(c))
	if err != nil {
		return err
	}
	return respondPage(c, page, h.request)
}

// Get handles GET /api/sell/car/:id.
func (h *SellHandler) Get(c *fiber.Ctx) error {
	req, err := h.sell.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.request(req))
}

// UpdateStatus handles PATCH /api/sell/car/:id/status.
func (h *SellHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentUser(c)
	if err != nil {
		return err
	}
	var body dto.StatusUpdateRequest
	if err := bindBody(c, &body); err != nil {
		return err
	}
	target := domain.SellRequestStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	req, err := h.sell.Transition(c.UserContext(), c.Params("id"), target, principal.User)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, h.request(req))
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
