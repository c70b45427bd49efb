package dto

import (
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/media"
)

// SellRequestForm is the public multipart submission; images arrive as
// files named "images".
type SellRequestForm struct {
	BrandID        string  `form:"brandId"`
	ModelID        string  `form:"modelId"`
	Year           int     `form:"year"`
	ExpectedPrice  *int64  `form:"expectedPrice"`
	Mileage        *int    `form:"mileage"`
	FuelType       *string `form:"fuelType"`
	Transmission   *string `form:"transmission"`
	Color          *string `form:"color"`
	Condition      *string `form:"condition"`
	BodyType       *string `form:"bodyType"`
	AdditionalInfo *string `form:"additionalInfo"`
	SellerName     string  `form:"sellerName"`
	SellerEmail    string  `form:"sellerEmail"`
	SellerPhone    string  `form:"sellerPhone"`
}

// SellRequestResponse is the admin view of a sell request.
type SellRequestResponse struct {
	ID             string                   `json:"id"`
	BrandID        string                   `json:"brandId"`
	ModelID        string                   `json:"modelId"`
	Year           int                      `json:"year"`
	ExpectedPrice  *int64                   `json:"expectedPrice,omitempty"`
	Mileage        *int                     `json:"mileage,omitempty"`
	FuelType       *domain.FuelType         `json:"fuelType,omitempty"`
	Transmission   *domain.Transmission     `json:"transmission,omitempty"`
	Color          *string                  `json:"color,omitempty"`
	Condition      *domain.SellCondition    `json:"condition,omitempty"`
	BodyType       *string                  `json:"bodyType,omitempty"`
	AdditionalInfo *string                  `json:"additionalInfo,omitempty"`
	Images         []string                 `json:"images"`
	SellerName     string                   `json:"sellerName"`
	SellerEmail    string                   `json:"sellerEmail"`
	SellerPhone    string                   `json:"sellerPhone"`
	Status         domain.SellRequestStatus `json:"status"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// NewSellRequestResponse maps a sell request, resolving image URLs.
func NewSellRequestResponse(r *domain.SellRequest, store media.Store) SellRequestResponse {
	return SellRequestResponse{
		ID:             r.ID,
		BrandID:        r.BrandID,
		ModelID:        r.ModelID,
		Year:           r.Year,
		ExpectedPrice:  r.ExpectedPrice,
		Mileage:        r.Mileage,
		FuelType:       r.FuelType,
		Transmission:   r.Transmission,
		Color:          r.Color,
		Condition:      r.Condition,
		BodyType:       r.BodyType,
		AdditionalInfo: r.AdditionalInfo,
		Images:         media.URLs(store, r.Images),
		SellerName:     r.SellerName,
		SellerEmail:    r.SellerEmail,
		SellerPhone:    r.SellerPhone,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
