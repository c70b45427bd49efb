package dto

import (
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/media"
)

// CarCreateRequest is the multipart form for admin listings; images
// arrive as files named "images".
type CarCreateRequest struct {
	BrandID      string  `form:"brandId"`
	ModelID      string  `form:"modelId"`
	Year         int     `form:"year"`
	Price        int64   `form:"price"`
	Mileage      *int    `form:"mileage"`
	FuelType     *string `form:"fuelType"`
	Transmission *string `form:"transmission"`
	Color        *string `form:"color"`
	Condition    *string `form:"condition"`
	BodyType     *string `form:"bodyType"`
	City         *string `form:"city"`
	Description  *string `form:"description"`
	IsFeatured   bool    `form:"isFeatured"`
	IsSold       bool    `form:"isSold"`
}

// CarUpdateRequest accepts JSON or form fields.
type CarUpdateRequest struct {
	Price       *int64  `json:"price" form:"price"`
	Mileage     *int    `json:"mileage" form:"mileage"`
	Color       *string `json:"color" form:"color"`
	City        *string `json:"city" form:"city"`
	Description *string `json:"description" form:"description"`
	IsFeatured  *bool   `json:"isFeatured" form:"isFeatured"`
	IsSold      *bool   `json:"isSold" form:"isSold"`
	IsEnabled   *bool   `json:"isEnable" form:"isEnable"`
}

// CarResponse is the public view of a listing.
type CarResponse struct {
	ID            string               `json:"id"`
	BrandID       string               `json:"brandId"`
	ModelID       string               `json:"modelId"`
	Year          int                  `json:"year"`
	Price         int64                `json:"price"`
	Mileage       *int                 `json:"mileage,omitempty"`
	FuelType      *domain.FuelType     `json:"fuelType,omitempty"`
	Transmission  *domain.Transmission `json:"transmission,omitempty"`
	Color         *string              `json:"color,omitempty"`
	Condition     domain.CarCondition  `json:"condition"`
	BodyType      *string              `json:"bodyType,omitempty"`
	City          *string              `json:"city,omitempty"`
	Images        []string             `json:"images"`
	Description   *string              `json:"description,omitempty"`
	AddedBy       string               `json:"addedBy"`
	IsApproved    bool                 `json:"isApproved"`
	IsFeatured    bool                 `json:"isFeatured"`
	IsSold        bool                 `json:"isSold"`
	IsEnabled     bool                 `json:"isEnable"`
	SellRequestID *string              `json:"sellRequestId,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// NewCarResponse maps a car, resolving image URLs.
func NewCarResponse(c *domain.Car, store media.Store) CarResponse {
	return CarResponse{
		ID:            c.ID,
		BrandID:       c.BrandID,
		ModelID:       c.ModelID,
		Year:          c.Year,
		Price:         c.Price,
		Mileage:       c.Mileage,
		FuelType:      c.FuelType,
		Transmission:  c.Transmission,
		Color:         c.Color,
		Condition:     c.Condition,
		BodyType:      c.BodyType,
		City:          c.City,
		Images:        media.URLs(store, c.Images),
		Description:   c.Description,
		AddedBy:       c.AddedBy,
		IsApproved:    c.IsApproved,
		IsFeatured:    c.IsFeatured,
		IsSold:        c.IsSold,
		IsEnabled:     c.IsEnabled,
		SellRequestID: c.SellRequestID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
