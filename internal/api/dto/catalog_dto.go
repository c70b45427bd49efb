package dto

import (
	"time"

	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/media"
)

// BrandRequest is the create/update form for brands. The logo arrives as
// a multipart file named "logo".
type BrandRequest struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
}

// BrandEnableRequest toggles brand visibility.
type BrandEnableRequest struct {
	IsEnabled *bool `json:"isEnable"`
}

// BrandResponse is the public view of a brand.
type BrandResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Logo        *string   `json:"logo,omitempty"`
	IsEnabled   bool      `json:"isEnable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewBrandResponse maps a brand, resolving the logo URL.
func NewBrandResponse(b *domain.Brand, store media.Store) BrandResponse {
	resp := BrandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		IsEnabled:   b.IsEnabled,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Logo != nil {
		url := media.URLs(store, []string{*b.Logo})[0]
		resp.Logo = &url
	}
	return resp
}

// ModelRequest creates or renames a model.
type ModelRequest struct {
	BrandID string `json:"brandId"`
	Name    string `json:"name"`
}

// ModelResponse is the public view of a brand model.
type ModelResponse struct {
	ID        string    `json:"id"`
	BrandID   string    `json:"brandId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewModelResponse maps a model.
func NewModelResponse(m *domain.BrandModel) ModelResponse {
	return ModelResponse{ID: m.ID, BrandID: m.BrandID, Name: m.Name, CreatedAt: m.CreatedAt}
}
