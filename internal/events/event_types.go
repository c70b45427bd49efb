package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/car-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSellRequestSubmitted EventType = "sell_request.submitted"
	EventSellRequestApproved  EventType = "sell_request.approved"
	EventSellRequestRejected  EventType = "sell_request.rejected"
	EventEnquiryCreated       EventType = "enquiry.created"
)

// Actor identifies who caused an event. Anonymous submissions leave UserID nil.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EntityID  string      `json:"entity_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, entityID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		EntityID:  entityID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ListingSummary describes the car a sell request or enquiry is about.
type ListingSummary struct {
	BrandName string `json:"brand_name"`
	ModelName string `json:"model_name"`
	Year      int    `json:"year"`
	Price     *int64 `json:"price,omitempty"`
}

// SellRequestSubmittedPayload payload.
type SellRequestSubmittedPayload struct {
	Listing       ListingSummary `json:"listing"`
	SellerName    string         `json:"seller_name"`
	SellerEmail   string         `json:"seller_email"`
	SellerPhone   string         `json:"seller_phone"`
	CoverImageURL string         `json:"cover_image_url,omitempty"`
}

// SellRequestDecidedPayload payload for approval and rejection.
type SellRequestDecidedPayload struct {
	OldStatus   domain.SellRequestStatus `json:"old_status"`
	NewStatus   domain.SellRequestStatus `json:"new_status"`
	CarID       *string                  `json:"car_id,omitempty"`
	Listing     ListingSummary           `json:"listing"`
	SellerName  string                   `json:"seller_name"`
	SellerEmail string                   `json:"seller_email"`
}

// EnquiryCreatedPayload payload.
type EnquiryCreatedPayload struct {
	CarID   string             `json:"car_id"`
	Type    domain.EnquiryType `json:"type"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Phone   string             `json:"phone"`
	Message *string            `json:"message,omitempty"`
	Price   *int64             `json:"price,omitempty"`
	Listing ListingSummary     `json:"listing"`
}
