package domain

import "time"

// Brand is a car manufacturer in the catalog.
type Brand struct {
	ID          string
	Name        string
	Logo        *string
	Description *string
	IsEnabled   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BrandModel is a model line that belongs to exactly one brand.
type BrandModel struct {
	ID        string
	BrandID   string
	Name      string
	CreatedAt time.Time
}
