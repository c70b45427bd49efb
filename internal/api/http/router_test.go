package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/dto"
	"github.com/spec-kit/car-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/car-marketplace/internal/auth"
	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/events"
	"github.com/spec-kit/car-marketplace/internal/mail"
	"github.com/spec-kit/car-marketplace/internal/media"
	"github.com/spec-kit/car-marketplace/internal/observability"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository/memory"
	"github.com/spec-kit/car-marketplace/internal/service"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *dto.Pagination `json:"pagination"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    map[string]any  `json:"details"`
}

type testServer struct {
	app       *fiber.App
	uploadDir string
	queue     *mail.MemoryQueue
	metrics   *observability.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	uploadDir := t.TempDir()
	store := memory.NewStore()
	mediaStore, err := media.NewLocalStore(uploadDir, "http://test", 1<<20)
	if err != nil {
		t.Fatalf("media store: %v", err)
	}

	var cfg config.Config
	cfg.Auth = config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 10, BcryptCost: 4}

	queue := mail.NewMemoryQueue(16)
	dispatcher := events.NewInMemoryDispatcher(nil)
	service.NewNotificationService(dispatcher, mail.NewOutbox(queue), nil,
		config.NotificationConfig{AdminEmail: "ops@example.com"}).RegisterHandlers()

	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: store.Users()})
	if err := authService.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "adminpass"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	catalog := service.NewCatalogService(service.CatalogDependencies{
		BrandRepo: store.Brands(), ModelRepo: store.Models(), CarRepo: store.Cars(), TxManager: store, Media: mediaStore,
	})
	cars := service.NewCarService(service.CarDependencies{CarRepo: store.Cars(), SellRequestRepo: store.SellRequests(), Catalog: catalog, Media: mediaStore})
	sell := service.NewSellRequestService(service.SellRequestDependencies{
		SellRequestRepo: store.SellRequests(),
		ModelRepo:       store.Models(),
		CarRepo:         store.Cars(),
		Catalog:         catalog,
		TxManager:       store,
		Media:           mediaStore,
		Dispatcher:      dispatcher,
		DuplicatePolicy: config.DuplicateRejectOpen,
	})
	enquiries := service.NewEnquiryService(service.EnquiryDependencies{
		EnquiryRepo: store.Enquiries(), CarRepo: store.Cars(), Catalog: catalog, Dispatcher: dispatcher,
	})
	uploader := handlers.NewUploader(mediaStore, 3, 1<<20)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, MiddlewareConfig{Metrics: metrics, ExposeTrace: true})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("car-marketplace", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Users:          handlers.NewUsersHandler(authService, service.NewDashboardService(store.Stats())),
		Brands:         handlers.NewBrandHandler(catalog, uploader),
		Cars:           handlers.NewCarHandler(cars, uploader),
		Sell:           handlers.NewSellHandler(sell, uploader),
		Enquiries:      handlers.NewEnquiryHandler(enquiries, service.NewScrapService(store.Scraps(), nil)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		UploadDir:      uploadDir,
	})
	return &testServer{app: app, uploadDir: uploadDir, queue: queue, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env
}

func (s *testServer) json(t *testing.T, method, path, token string, payload any) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, token, body, fiber.MIMEApplicationJSON)
}

func multipartBody(t *testing.T, fields map[string]string, files ...string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, name := range files {
		fw, err := w.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		_, _ = fw.Write([]byte("\xff\xd8\xff fake jpeg"))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func login(t *testing.T, s *testServer, email, password string) string {
	t.Helper()
	status, env := s.json(t, "POST", "/api/user/login", "", dto.UserLoginRequest{Email: email, Password: password})
	if status != fiber.StatusOK {
		t.Fatalf("login %s: %d %s", email, status, env.Message)
	}
	return decode[dto.AuthResponse](t, env.Data).Token
}

func TestSellRequestApprovalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminToken := login(t, s, "admin@example.com", "adminpass")

	status, env := s.json(t, "POST", "/api/brand/create", adminToken, map[string]string{"name": "Toyota"})
	if status != fiber.StatusCreated {
		t.Fatalf("create brand: %d %s", status, env.Message)
	}
	brand := decode[dto.BrandResponse](t, env.Data)
	status, env = s.json(t, "POST", "/api/brand/model", adminToken, dto.ModelRequest{BrandID: brand.ID, Name: "Corolla"})
	if status != fiber.StatusCreated {
		t.Fatalf("create model: %d %s", status, env.Message)
	}
	model := decode[dto.ModelResponse](t, env.Data)

	fields := map[string]string{
		"brandId":       brand.ID,
		"modelId":       model.ID,
		"year":          "2020",
		"expectedPrice": "15000",
		"condition":     "2nd",
		"sellerName":    "Alice",
		"sellerEmail":   "a@x.com",
		"sellerPhone":   "+1000",
	}

	body, ctype := multipartBody(t, fields, "img1.jpg")
	status, env = s.do(t, "POST", "/api/sell/car", "", body, ctype)
	if status != fiber.StatusCreated || !env.Success {
		t.Fatalf("submit: %d %s %v", status, env.Message, env.Details)
	}
	req := decode[dto.SellRequestResponse](t, env.Data)
	if req.Status != "pending" || len(req.Images) != 1 || !strings.HasPrefix(req.Images[0], "http://test/uploads/sell-requests/") {
		t.Fatalf("unexpected request: %+v", req)
	}
	if n := countFiles(t, s.uploadDir); n != 1 {
		t.Fatalf("expected 1 stored upload, got %d", n)
	}

	bad := map[string]string{}
	for k, v := range fields {
		bad[k] = v
	}
	bad["brandId"] = "00000000-0000-0000-0000-000000000000"
	body, ctype = multipartBody(t, bad, "img2.jpg")
	status, env = s.do(t, "POST", "/api/sell/car", "", body, ctype)
	if status != fiber.StatusBadRequest || env.Code != "UNKNOWN_REFERENCE" || env.Success {
		t.Fatalf("unknown brand: %d %+v", status, env)
	}
	if n := countFiles(t, s.uploadDir); n != 1 {
		t.Fatalf("rejected upload left on disk: %d files", n)
	}

	body, ctype = multipartBody(t, fields, "notes.txt")
	status, env = s.do(t, "POST", "/api/sell/car", "", body, ctype)
	if status != fiber.StatusBadRequest || env.Code != "VALIDATION_FAILED" {
		t.Fatalf("bad file type: %d %+v", status, env)
	}

	statusPath := "/api/sell/car/" + req.ID + "/status"
	approve := dto.StatusUpdateRequest{Status: "approved"}

	status, _ = s.json(t, "PATCH", statusPath, "", approve)
	if status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous transition: %d", status)
	}
	status, env = s.json(t, "POST", "/api/user/register", "", dto.UserRegisterRequest{Name: "Bob", Email: "bob@x.com", Password: "bobpass"})
	if status != fiber.StatusCreated {
		t.Fatalf("register: %d %s", status, env.Message)
	}
	userToken := decode[dto.AuthResponse](t, env.Data).Token
	status, _ = s.json(t, "PATCH", statusPath, userToken, approve)
	if status != fiber.StatusForbidden {
		t.Fatalf("user transition: %d", status)
	}

	status, env = s.json(t, "PATCH", statusPath, adminToken, approve)
	if status != fiber.StatusOK {
		t.Fatalf("approve: %d %s", status, env.Message)
	}
	if got := decode[dto.SellRequestResponse](t, env.Data); got.Status != "approved" {
		t.Fatalf("expected approved, got %s", got.Status)
	}

	status, env = s.do(t, "GET", "/api/car/all", "", nil, "")
	if status != fiber.StatusOK || env.Pagination == nil || env.Pagination.Total != 1 {
		t.Fatalf("public cars: %d %+v", status, env.Pagination)
	}
	cars := decode[[]dto.CarResponse](t, env.Data)
	if cars[0].BrandID != brand.ID || cars[0].ModelID != model.ID || cars[0].Year != 2020 || cars[0].Condition != "used" {
		t.Fatalf("unexpected car: %+v", cars[0])
	}
	if cars[0].SellRequestID == nil || *cars[0].SellRequestID != req.ID {
		t.Fatalf("car not linked to request: %+v", cars[0])
	}

	status, env = s.json(t, "PATCH", statusPath, adminToken, approve)
	if status != fiber.StatusConflict || env.Code != "CONFLICT" {
		t.Fatalf("second approve: %d %+v", status, env)
	}
	status, env = s.json(t, "PATCH", statusPath, adminToken, dto.StatusUpdateRequest{Status: "rejected"})
	if status != fiber.StatusConflict {
		t.Fatalf("reject after approve: %d %+v", status, env)
	}
	status, env = s.do(t, "GET", "/api/car/all", "", nil, "")
	if env.Pagination.Total != 1 {
		t.Fatalf("duplicate car created: %d", env.Pagination.Total)
	}

	status, env = s.do(t, "GET", "/api/sell/car?page=1&limit=5", adminToken, nil, "")
	if status != fiber.StatusOK || env.Pagination == nil || env.Pagination.Total != 1 || env.Pagination.Limit != 5 || env.Pagination.Pages != 1 {
		t.Fatalf("list sell requests: %d %+v", status, env.Pagination)
	}

	// admin alert on submit, seller email on approval
	if n := s.queue.Len(); n != 2 {
		t.Fatalf("expected 2 queued emails, got %d", n)
	}
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, "GET", "/api/nothing-here", "", nil, "")
	if status != fiber.StatusNotFound || env.Success || env.Code != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %+v", status, env)
	}

	status, env = s.json(t, "POST", "/api/enquiry", "", map[string]string{"name": "x"})
	if status != fiber.StatusBadRequest || env.Code != "VALIDATION_FAILED" || env.Details["carId"] == nil {
		t.Fatalf("invalid enquiry: %d %+v", status, env)
	}

	status, _ = s.do(t, "GET", "/health/live", "", nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("live: %d", status)
	}
	status, _ = s.do(t, "GET", "/health/ready", "", nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("ready: %d", status)
	}

	adminToken := login(t, s, "admin@example.com", "adminpass")
	status, env = s.do(t, "GET", "/metrics", adminToken, nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("metrics: %d", status)
	}
	snap := decode[observability.Snapshot](t, env.Data)
	if len(snap.Errors) == 0 {
		t.Fatalf("errors not counted: %+v", snap)
	}
}

func TestDashboardRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	status, _ := s.do(t, "GET", "/api/user/dashboard", "", nil, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous dashboard: %d", status)
	}
	adminToken := login(t, s, "admin@example.com", "adminpass")
	status, env := s.do(t, "GET", "/api/user/dashboard", adminToken, nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("dashboard: %d %s", status, env.Message)
	}
	stats := decode[service.DashboardStats](t, env.Data)
	if stats.TotalBrands != 0 || stats.TotalCars != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
