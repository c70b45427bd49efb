package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/car-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/car-marketplace/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Users          *handlers.UsersHandler
	Brands         *handlers.BrandHandler
	Cars           *handlers.CarHandler
	Sell           *handlers.SellHandler
	Enquiries      *handlers.EnquiryHandler
	AuthMiddleware *auth.AuthMiddleware
	// UploadDir is served at /uploads when the local media backend is used.
	UploadDir string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	authn := cfg.AuthMiddleware.Handle
	optional := cfg.AuthMiddleware.Optional
	admin := auth.RequireAdmin()

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", authn, admin, cfg.Metrics.Get)
	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	api := app.Group("/api")

	users := api.Group("/user")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Get("/me", authn, auth.RequireAnyRole(), cfg.Users.Me)
	users.Patch("/update", authn, auth.RequireAnyRole(), cfg.Users.Update)
	users.Get("/dashboard", authn, admin, cfg.Users.Dashboard)

	brands := api.Group("/brand")
	brands.Get("/all", cfg.Brands.List)
	brands.Post("/create", authn, admin, cfg.Brands.Create)
	brands.Patch("/enableDisableBrand/:brandId", authn, admin, cfg.Brands.SetEnabled)
	brands.Get("/model/:brandId", cfg.Brands.ListModels)
	brands.Post("/model", authn, admin, cfg.Brands.CreateModel)
	brands.Patch("/model/:id", authn, admin, cfg.Brands.RenameModel)
	brands.Delete("/model/:id", authn, admin, cfg.Brands.DeleteModel)
	brands.Get("/:id", cfg.Brands.Get)
	brands.Patch("/:id", authn, admin, cfg.Brands.Update)
	brands.Delete("/:id", authn, admin, cfg.Brands.Delete)

	cars := api.Group("/car")
	cars.Get("/all", optional, cfg.Cars.List)
	cars.Get("/brand/:brandId", optional, cfg.Cars.ListByBrand)
	cars.Post("/create", authn, admin, cfg.Cars.Create)
	cars.Get("/:id", optional, cfg.Cars.Get)
	cars.Patch("/:id", authn, admin, cfg.Cars.Update)
	cars.Delete("/:id", authn, admin, cfg.Cars.Delete)

	sell := api.Group("/sell/car")
	sell.Post("", cfg.Sell.Submit)
	sell.Get("", authn, admin, cfg.Sell.List)
	sell.Get("/:id", authn, admin, cfg.Sell.Get)
	sell.Patch("/:id/status", authn, admin, cfg.Sell.UpdateStatus)

	enquiries := api.Group("/enquiry")
	enquiries.Post("", cfg.Enquiries.Create)
	enquiries.Get("", authn, admin, cfg.Enquiries.List)
	enquiries.Patch("/:id/status", authn, admin, cfg.Enquiries.UpdateStatus)

	scrap := api.Group("/scrap")
	scrap.Post("/request", cfg.Enquiries.CreateScrap)
	scrap.Get("/requests", authn, admin, cfg.Enquiries.ListScrap)
}
