package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/car-marketplace/internal/api/http"
	"github.com/spec-kit/car-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/car-marketplace/internal/auth"
	"github.com/spec-kit/car-marketplace/internal/config"
	"github.com/spec-kit/car-marketplace/internal/events"
	"github.com/spec-kit/car-marketplace/internal/mail"
	"github.com/spec-kit/car-marketplace/internal/media"
	"github.com/spec-kit/car-marketplace/internal/observability"
	"github.com/spec-kit/car-marketplace/internal/persistence"
	"github.com/spec-kit/car-marketplace/internal/repository"
	"github.com/spec-kit/car-marketplace/internal/repository/memory"
	"github.com/spec-kit/car-marketplace/internal/service"
	"github.com/spec-kit/car-marketplace/internal/worker"
)

type repositories struct {
	users        repository.UserRepository
	brands       repository.BrandRepository
	models       repository.BrandModelRepository
	cars         repository.CarRepository
	sellRequests repository.SellRequestRepository
	enquiries    repository.EnquiryRepository
	scraps       repository.ScrapRepository
	stats        repository.StatsRepository
	tx           persistence.TxManager
}

func newRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		store := memory.NewStore()
		return repositories{
			users:        store.Users(),
			brands:       store.Brands(),
			models:       store.Models(),
			cars:         store.Cars(),
			sellRequests: store.SellRequests(),
			enquiries:    store.Enquiries(),
			scraps:       store.Scraps(),
			stats:        store.Stats(),
			tx:           store,
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		users:        repository.NewUserRepository(pool),
		brands:       repository.NewBrandRepository(pool),
		models:       repository.NewBrandModelRepository(pool),
		cars:         repository.NewCarRepository(pool),
		sellRequests: repository.NewSellRequestRepository(pool),
		enquiries:    repository.NewEnquiryRepository(pool),
		scraps:       repository.NewScrapRepository(pool),
		stats:        repository.NewStatsRepository(pool),
		tx:           pg,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var queue mail.Queue
	if redis.Available() {
		queue = mail.NewRedisQueue(redis.Client, cfg.Notification.QueueKey)
	} else {
		logger.Warn("mail queue is in-process; queued emails are lost on restart")
		queue = mail.NewMemoryQueue(256)
	}

	mediaStore, err := media.New(cfg.Media, cfg.App.BaseURL)
	if err != nil {
		logger.Fatal("failed to init media store", zap.Error(err))
	}

	repos := newRepositories(pg)
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: repos.users, Logger: logger})
	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to ensure admin account", zap.Error(err))
	}
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		BrandRepo: repos.brands,
		ModelRepo: repos.models,
		CarRepo:   repos.cars,
		TxManager: repos.tx,
		Media:     mediaStore,
		Logger:    logger,
	})
	carService := service.NewCarService(service.CarDependencies{
		CarRepo:         repos.cars,
		SellRequestRepo: repos.sellRequests,
		Catalog:         catalogService,
		Media:           mediaStore,
		Logger:          logger,
	})
	sellService := service.NewSellRequestService(service.SellRequestDependencies{
		SellRequestRepo: repos.sellRequests,
		ModelRepo:       repos.models,
		CarRepo:         repos.cars,
		Catalog:         catalogService,
		TxManager:       repos.tx,
		Media:           mediaStore,
		Dispatcher:      dispatcher,
		DuplicatePolicy: cfg.Sell.DuplicatePolicy,
		Logger:          logger,
	})
	enquiryService := service.NewEnquiryService(service.EnquiryDependencies{
		EnquiryRepo: repos.enquiries,
		CarRepo:     repos.cars,
		Catalog:     catalogService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	scrapService := service.NewScrapService(repos.scraps, logger)
	dashboardService := service.NewDashboardService(repos.stats)
	notificationService := service.NewNotificationService(dispatcher, mail.NewOutbox(queue), logger, cfg.Notification)

	notificationWorker := worker.NewNotificationWorker(queue, mail.NewMailer(cfg.SMTP, logger), logger, cfg.Notification.MaxAttempts)
	workerDone := worker.StartNotificationWorker(ctx, notificationService, notificationWorker)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitMB * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		ExposeTrace: !cfg.App.IsProduction(),
	})

	uploader := handlers.NewUploader(mediaStore, cfg.Media.MaxFiles, cfg.Media.MaxFileBytes)
	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Users:          handlers.NewUsersHandler(authService, dashboardService),
		Brands:         handlers.NewBrandHandler(catalogService, uploader),
		Cars:           handlers.NewCarHandler(carService, uploader),
		Sell:           handlers.NewSellHandler(sellService, uploader),
		Enquiries:      handlers.NewEnquiryHandler(enquiryService, scrapService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.users),
	}
	if cfg.Media.Backend == "local" {
		routes.UploadDir = cfg.Media.UploadDir
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		logger.Warn("notification worker did not stop in time")
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
