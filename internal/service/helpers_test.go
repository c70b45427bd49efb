package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/domain"
	"github.com/spec-kit/car-marketplace/internal/events"
	"github.com/spec-kit/car-marketplace/internal/repository/memory"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *recordingNotifier) messages() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type fakeMedia struct {
	mu      sync.Mutex
	next    int
	deleted []string
}

func (m *fakeMedia) Save(_ context.Context, folder string, _ *multipart.FileHeader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("%s/img%d.jpg", folder, m.next), nil
}

func (m *fakeMedia) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *fakeMedia) URL(ref string) string { return "http://media.test/" + ref }

func (m *fakeMedia) deletedRefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

type fixture struct {
	store    *memory.Store
	media    *fakeMedia
	notifier *recordingNotifier

	catalog   *CatalogService
	cars      *CarService
	sell      *SellRequestService
	enquiries *EnquiryService

	admin *domain.User
	brand *domain.Brand
	model *domain.BrandModel
}

const adminInbox = "ops@example.com"

func newFixture(t *testing.T, policy config.DuplicatePolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	fm := &fakeMedia{}
	notifier := &recordingNotifier{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	NewNotificationService(dispatcher, notifier, nil, config.NotificationConfig{AdminEmail: adminInbox}).RegisterHandlers()

	catalog := NewCatalogService(CatalogDependencies{
		BrandRepo: store.Brands(),
		ModelRepo: store.Models(),
		CarRepo:   store.Cars(),
		TxManager: store,
		Media:     fm,
	})
	f := &fixture{
		store:    store,
		media:    fm,
		notifier: notifier,
		catalog:  catalog,
		cars:     NewCarService(CarDependencies{CarRepo: store.Cars(), SellRequestRepo: store.SellRequests(), Catalog: catalog, Media: fm}),
		sell: NewSellRequestService(SellRequestDependencies{
			SellRequestRepo: store.SellRequests(),
			ModelRepo:       store.Models(),
			CarRepo:         store.Cars(),
			Catalog:         catalog,
			TxManager:       store,
			Media:           fm,
			Dispatcher:      dispatcher,
			DuplicatePolicy: policy,
		}),
		enquiries: NewEnquiryService(EnquiryDependencies{
			EnquiryRepo: store.Enquiries(),
			CarRepo:     store.Cars(),
			Catalog:     catalog,
			Dispatcher:  dispatcher,
		}),
	}

	f.admin = &domain.User{Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	if err := store.Users().Create(ctx, f.admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	brand, err := catalog.CreateBrand(ctx, BrandInput{Name: "Toyota"})
	if err != nil {
		t.Fatalf("seed brand: %v", err)
	}
	model, err := catalog.CreateModel(ctx, brand.ID, "Corolla")
	if err != nil {
		t.Fatalf("seed model: %v", err)
	}
	f.brand, f.model = brand, model
	return f
}

func (f *fixture) submitInput() SubmitSellRequestInput {
	price := int64(15000)
	return SubmitSellRequestInput{
		BrandID:       f.brand.ID,
		ModelID:       f.model.ID,
		Year:          2020,
		ExpectedPrice: &price,
		SellerName:    "Alice",
		SellerEmail:   "a@x.com",
		SellerPhone:   "+100000000",
	}
}

func (f *fixture) submit(t *testing.T) *domain.SellRequest {
	t.Helper()
	req, err := f.sell.Submit(context.Background(), f.submitInput(), []string{"sell/img1.jpg"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return req
}

func (f *fixture) carCount(t *testing.T) int {
	t.Helper()
	res, err := f.cars.List(context.Background(), CarQuery{IncludeHidden: true})
	if err != nil {
		t.Fatalf("list cars: %v", err)
	}
	return res.Total
}
