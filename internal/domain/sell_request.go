package domain

import "time"

// SellRequestStatus is the moderation state of a sell request.
type SellRequestStatus string

const (
	SellRequestPending  SellRequestStatus = "pending"
	SellRequestApproved SellRequestStatus = "approved"
	SellRequestRejected SellRequestStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s SellRequestStatus) IsTerminal() bool {
	return s == SellRequestApproved || s == SellRequestRejected
}

// SellCondition is the seller-declared ownership grade.
type SellCondition string

const (
	SellConditionNew       SellCondition = "new"
	SellConditionUsed      SellCondition = "used"
	SellConditionFirst     SellCondition = "1st"
	SellConditionSecond    SellCondition = "2nd"
	SellConditionThird     SellCondition = "3rd"
	SellConditionFourth    SellCondition = "4th"
	SellConditionFifthPlus SellCondition = "5th or more"
)

// Valid reports whether c is a known ownership grade.
func (c SellCondition) Valid() bool {
	switch c {
	case SellConditionNew, SellConditionUsed, SellConditionFirst, SellConditionSecond,
		SellConditionThird, SellConditionFourth, SellConditionFifthPlus:
		return true
	}
	return false
}

// ListingCondition collapses ownership grades into the listing condition.
func (c SellCondition) ListingCondition() CarCondition {
	if c == SellConditionNew {
		return CarConditionNew
	}
	return CarConditionUsed
}

// SellRequest is a seller's proposal to list a car, pending admin review.
// Seller contact is free-form; the request is not tied to an account.
type SellRequest struct {
	ID             string
	BrandID        string
	ModelID        string
	Year           int
	ExpectedPrice  *int64
	Mileage        *int
	FuelType       *FuelType
	Transmission   *Transmission
	Color          *string
	Condition      *SellCondition
	BodyType       *string
	AdditionalInfo *string
	Images         []string
	SellerName     string
	SellerEmail    string
	SellerPhone    string
	Status         SellRequestStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ToCar derives the listing created when the request is approved.
func (r *SellRequest) ToCar(addedBy string) *Car {
	requestID := r.ID
	car := &Car{
		BrandID:       r.BrandID,
		ModelID:       r.ModelID,
		Year:          r.Year,
		Mileage:       r.Mileage,
		FuelType:      r.FuelType,
		Transmission:  r.Transmission,
		Color:         r.Color,
		Condition:     CarConditionUsed,
		BodyType:      r.BodyType,
		Images:        append([]string(nil), r.Images...),
		Description:   r.AdditionalInfo,
		AddedBy:       addedBy,
		IsApproved:    true,
		IsEnabled:     true,
		SellRequestID: &requestID,
	}
	if r.ExpectedPrice != nil {
		car.Price = *r.ExpectedPrice
	}
	if r.Condition != nil {
		car.Condition = r.Condition.ListingCondition()
	}
	return car
}
