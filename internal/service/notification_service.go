package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/events"
)

// NotificationService turns domain events into outbound email.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   Notifier
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier Notifier, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSellRequestSubmitted, n.handleSellRequestSubmitted)
	n.dispatcher.Subscribe(events.EventSellRequestApproved, n.handleSellRequestApproved)
	n.dispatcher.Subscribe(events.EventSellRequestRejected, n.handleSellRequestRejected)
	n.dispatcher.Subscribe(events.EventEnquiryCreated, n.handleEnquiryCreated)
}

func (n *NotificationService) handleSellRequestSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SellRequestSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("SellRequestSubmitted", zap.String("sell_request_id", event.EntityID))

	var b strings.Builder
	fmt.Fprintf(&b, "A new sell request was submitted.\n\n")
	writeListing(&b, payload.Listing)
	fmt.Fprintf(&b, "\nSeller: %s\nEmail: %s\nPhone: %s\n", payload.SellerName, payload.SellerEmail, payload.SellerPhone)
	if payload.CoverImageURL != "" {
		fmt.Fprintf(&b, "Image: %s\n", payload.CoverImageURL)
	}
	fmt.Fprintf(&b, "\nRequest ID: %s\n", event.EntityID)
	n.notifyAdmin(ctx, event, "New sell request: "+listingTitle(payload.Listing), b.String())
	return nil
}

func (n *NotificationService) handleSellRequestApproved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SellRequestDecidedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("SellRequestApproved",
		zap.String("sell_request_id", event.EntityID),
		zap.Stringp("car_id", payload.CarID))

	var b strings.Builder
	name := payload.SellerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nYour request to sell your car has been approved and the listing is now live.\n\n", name)
	writeListing(&b, payload.Listing)
	b.WriteString("\nThank you for choosing us.\n")
	n.send(ctx, event, payload.SellerEmail, "Your sell request has been approved", b.String())
	return nil
}

func (n *NotificationService) handleSellRequestRejected(_ context.Context, event events.Event) error {
	n.logger.Info("SellRequestRejected", zap.String("sell_request_id", event.EntityID))
	return nil
}

func (n *NotificationService) handleEnquiryCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EnquiryCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("EnquiryCreated",
		zap.String("enquiry_id", event.EntityID),
		zap.String("car_id", payload.CarID),
		zap.String("type", string(payload.Type)))

	var b strings.Builder
	fmt.Fprintf(&b, "A new %s was received.\n\n", payload.Type)
	writeListing(&b, payload.Listing)
	fmt.Fprintf(&b, "\nName: %s\nEmail: %s\nPhone: %s\n", payload.Name, payload.Email, payload.Phone)
	if payload.Price != nil {
		fmt.Fprintf(&b, "Offered price: %d\n", *payload.Price)
	}
	if payload.Message != nil {
		fmt.Fprintf(&b, "Message: %s\n", *payload.Message)
	}
	n.notifyAdmin(ctx, event, fmt.Sprintf("New %s: %s", payload.Type, listingTitle(payload.Listing)), b.String())
	return nil
}

func (n *NotificationService) notifyAdmin(ctx context.Context, event events.Event, subject, body string) {
	if strings.TrimSpace(n.cfg.AdminEmail) == "" {
		n.logger.Debug("admin alert skipped; no recipient configured", zap.String("event_type", string(event.Type)))
		return
	}
	n.send(ctx, event, n.cfg.AdminEmail, subject, body)
}

// send hands the message to the notifier. Failures are logged only.
func (n *NotificationService) send(ctx context.Context, event events.Event, to, subject, body string) {
	if n.notifier == nil {
		return
	}
	if err := n.notifier.Notify(ctx, to, subject, body); err != nil {
		n.logger.Warn("notification failed",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
			zap.String("to", to),
			zap.Error(err))
	}
}

func listingTitle(l events.ListingSummary) string {
	title := strings.TrimSpace(l.BrandName + " " + l.ModelName)
	if l.Year > 0 {
		title = strings.TrimSpace(fmt.Sprintf("%s %d", title, l.Year))
	}
	if title == "" {
		return "car"
	}
	return title
}

func writeListing(b *strings.Builder, l events.ListingSummary) {
	fmt.Fprintf(b, "Brand: %s\nModel: %s\nYear: %d\n", orDash(l.BrandName), orDash(l.ModelName), l.Year)
	if l.Price != nil {
		fmt.Fprintf(b, "Price: %d\n", *l.Price)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
