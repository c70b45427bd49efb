package dto

import (
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
)

// EnquiryResponse is the admin view of an enquiry.
type EnquiryResponse struct {
	ID        string               `json:"id"`
	CarID     string               `json:"carId"`
	Type      domain.EnquiryType   `json:"typeData"`
	Name      string               `json:"name"`
	Email     string               `json:"email"`
	Phone     string               `json:"phone"`
	Message   *string              `json:"message,omitempty"`
	Price     *int64               `json:"price,omitempty"`
	Status    domain.EnquiryStatus `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
}

// NewEnquiryResponse maps an enquiry.
func NewEnquiryResponse(e *domain.Enquiry) EnquiryResponse {
	return EnquiryResponse{
		ID:        e.ID,
		CarID:     e.CarID,
		Type:      e.Type,
		Name:      e.Name,
		Email:     e.Email,
		Phone:     e.Phone,
		Message:   e.Message,
		Price:     e.Price,
		Status:    e.Status,
		CreatedAt: e.CreatedAt,
	}
}

// ScrapResponse is the admin view of a scrap request.
type ScrapResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email"`
	CarBrand    string    `json:"carBrand"`
	Model       string    `json:"model"`
	Year        int       `json:"year"`
	FuelType    string    `json:"fuelType"`
	City        string    `json:"city"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewScrapResponse maps a scrap request.
func NewScrapResponse(s *domain.ScrapRequest) ScrapResponse {
	return ScrapResponse{
		ID:          s.ID,
		Name:        s.Name,
		PhoneNumber: s.PhoneNumber,
		Email:       s.Email,
		CarBrand:    s.CarBrand,
		Model:       s.Model,
		Year:        s.Year,
		FuelType:    s.FuelType,
		City:        s.City,
		CreatedAt:   s.CreatedAt,
	}
}
