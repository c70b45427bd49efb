package service

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/domain"
)

func TestEnquiryLifecycle(t *testing.T) {
	f := newFixture(t, config.DuplicateAllow)
	ctx := context.Background()
	car, err := f.cars.Create(ctx, f.admin.ID, CarInput{BrandID: f.brand.ID, ModelID: f.model.ID, Year: 2020, Price: 5000}, nil)
	if err != nil {
		t.Fatalf("create car: %v", err)
	}

	base := EnquiryInput{CarID: car.ID, Name: "Bob", Email: "bob@example.com", Phone: "123"}
	enquiry, err := f.enquiries.Create(ctx, base)
	if err != nil {
		t.Fatalf("create enquiry: %v", err)
	}
	if enquiry.Type != domain.EnquiryTypeEnquiry || enquiry.Status != domain.EnquiryPending {
		t.Fatalf("unexpected defaults: %+v", enquiry)
	}

	bidding := domain.EnquiryTypeBidding
	bid := base
	bid.Type = &bidding
	_, err = f.enquiries.Create(ctx, bid)
	assertCode(t, err, "VALIDATION_FAILED", 400)

	price := int64(4500)
	bid.Price = &price
	if _, err := f.enquiries.Create(ctx, bid); err != nil {
		t.Fatalf("create bid: %v", err)
	}

	missing := base
	missing.CarID = "nope"
	_, err = f.enquiries.Create(ctx, missing)
	assertCode(t, err, "NOT_FOUND", 404)

	kind := "Bidding"
	bids, err := f.enquiries.List(ctx, EnquiryQuery{Type: &kind})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if bids.Total != 1 || bids.Items[0].Price == nil || *bids.Items[0].Price != price {
		t.Fatalf("unexpected bid list: %+v", bids)
	}

	updated, err := f.enquiries.UpdateStatus(ctx, enquiry.ID, " Contacted ")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.EnquiryContacted {
		t.Fatalf("expected contacted, got %s", updated.Status)
	}
	_, err = f.enquiries.UpdateStatus(ctx, enquiry.ID, "closed")
	assertCode(t, err, "VALIDATION_FAILED", 400)

	var alerts int
	for _, m := range f.notifier.messages() {
		if m.To == adminInbox && strings.Contains(m.Subject, "Toyota Corolla") {
			alerts++
		}
	}
	if alerts != 2 {
		t.Fatalf("expected 2 admin alerts, got %d", alerts)
	}
}

func TestScrapRequests(t *testing.T) {
	svc := NewScrapService(newFixture(t, config.DuplicateAllow).store.Scraps(), nil)
	ctx := context.Background()

	input := ScrapInput{
		Name: "Carl", PhoneNumber: "555", Email: "carl@example.com",
		CarBrand: "Ford", Model: "Focus", Year: 2005, FuelType: "petrol", City: "Leeds",
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("create: %v", err)
	}
	input.City = ""
	_, err := svc.Create(ctx, input)
	assertCode(t, err, "VALIDATION_FAILED", 400)

	page, err := svc.List(ctx, PageQuery{})
	if err != nil || page.Total != 1 {
		t.Fatalf("expected one scrap request, got %v (%v)", page, err)
	}
}
