package domain

import "time"

// FuelType enumerates accepted fuel types.
type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelElectric FuelType = "electric"
	FuelHybrid   FuelType = "hybrid"
	FuelCNG      FuelType = "cng"
)

// Valid reports whether f is a known fuel type.
func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid, FuelCNG:
		return true
	}
	return false
}

// Transmission enumerates gearbox kinds.
type Transmission string

const (
	TransmissionAutomatic Transmission = "automatic"
	TransmissionManual    Transmission = "manual"
)

// Valid reports whether t is a known transmission.
func (t Transmission) Valid() bool {
	return t == TransmissionAutomatic || t == TransmissionManual
}

// CarCondition is the listing condition shown to buyers.
type CarCondition string

const (
	CarConditionNew  CarCondition = "new"
	CarConditionUsed CarCondition = "used"
)

// Valid reports whether c is a known listing condition.
func (c CarCondition) Valid() bool {
	return c == CarConditionNew || c == CarConditionUsed
}

// Car is a marketplace listing.
type Car struct {
	ID            string
	BrandID       string
	ModelID       string
	Year          int
	Price         int64
	Mileage       *int
	FuelType      *FuelType
	Transmission  *Transmission
	Color         *string
	Condition     CarCondition
	BodyType      *string
	City          *string
	Images        []string
	Description   *string
	AddedBy       string
	IsApproved    bool
	IsFeatured    bool
	IsSold        bool
	IsEnabled     bool
	SellRequestID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Visible reports whether buyers may see the listing.
func (c *Car) Visible() bool {
	return c.IsApproved && c.IsEnabled
}
