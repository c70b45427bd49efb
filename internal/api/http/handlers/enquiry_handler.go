package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/dto"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/service"
)

// EnquiryHandler handles buyer enquiries and scrap quotes.
type EnquiryHandler struct {
	enquiries *service.EnquiryService
	scrap     *service.ScrapService
}

// NewEnquiryHandler constructs handler.
func NewEnquiryHandler(enquiries *service.EnquiryService, scrap *service.ScrapService) *EnquiryHandler {
	return &EnquiryHandler{enquiries: enquiries, scrap: scrap}
}

// Create handles POST /api/enquiry.
func (h *EnquiryHandler) Create(c *fiber.Ctx) error {
	var input service.EnquiryInput
	if err := bindBody(c, &input); err != nil {
		return err
	}
	enquiry, err := h.enquiries.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewEnquiryResponse(enquiry))
}

// List handles GET /api/enquiry.
func (h *EnquiryHandler) List(c *fiber.Ctx) error {
	query := service.EnquiryQuery{PageQuery: pageQuery(c)}
	if kind := c.Query("type"); kind != "" {
		query.Type = &kind
	}
	page, err := h.enquiries.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return respondPage(c, page, func(e *domain.Enquiry) dto.EnquiryResponse { return dto.NewEnquiryResponse(e) })
}

// UpdateStatus handles PATCH /api/enquiry/:id/status.
func (h *EnquiryHandler) UpdateStatus(c *fiber.Ctx) error {
	var body dto.StatusUpdateRequest
	if err := bindBody(c, &body); err != nil {
		return err
	}
	enquiry, err := h.enquiries.UpdateStatus(c.UserContext(), c.Params("id"), body.Status)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, dto.NewEnquiryResponse(enquiry))
}

// CreateScrap handles POST /api/scrap/request.
func (h *EnquiryHandler) CreateScrap(c *fiber.Ctx) error {
	var input service.ScrapInput
	if err := bindBody(c, &input); err != nil {
		return err
	}
	req, err := h.scrap.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, dto.NewScrapResponse(req))
}

// ListScrap handles GET /api/scrap/requests.
func (h *EnquiryHandler) ListScrap(c *fiber.Ctx) error {
	page, err := h.scrap.List(c.UserContext(), pageQuery(c))
	if err != nil {
		return err
	}
	return respondPage(c, page, func(s *domain.ScrapRequest) dto.ScrapResponse { return dto.NewScrapResponse(s) })
}
