package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/insighta/complaints-service/internal/api/http"
	"github.com/insighta/complaints-service/internal/api/http/handlers"
	"github.com/insighta/complaints-service/internal/auth"
	"github.com/insighta/complaints-service/internal/config"
	"github.com/insighta/complaints-service/internal/enrichment"
	"github.com/insighta/complaints-service/internal/events"
	"github.com/insighta/complaints-service/internal/observability"
	"github.com/insighta/complaints-service/internal/persistence"
	"github.com/insighta/complaints-service/internal/repository"
	"github.com/insighta/complaints-service/internal/sequence"
	"github.com/insighta/complaints-service/internal/service"
	"github.com/insighta/complaints-service/internal/worker"
)

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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewStatusHistoryRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	guestRepo := repository.NewGuestContactRepository(pool)
	tokenRepo := repository.NewAccessTokenRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	allocator := sequence.NewAllocator(ticketRepo)
	categoryResolver := service.NewCategoryResolver(categoryRepo, redis, logger)
	submitters := service.NewSubmitterService(guestRepo, tokenRepo, cfg.GuestAccess.TokenTTL(), logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Allocator:   allocator,
		Categories:  categoryResolver,
		Submitters:  submitters,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(ticketRepo, dispatcher, logger)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CustomerRepo: customerRepo,
		StaffRepo:    staffRepo,
	})

	enricher := enrichment.NewService(enrichment.Dependencies{
		Classifier: enrichment.NewHTTPClassifier(cfg.Enrichment),
		TicketRepo: ticketRepo,
		Categories: categoryResolver,
		Logger:     logger,
		Metrics:    metrics,
		Reprocess:  cfg.Reprocess,
	})
	if cfg.Enrichment.Enabled {
		worker.StartEnrichmentWorker(dispatcher, enricher, logger, cfg.Enrichment.Timeout())
	} else {
		logger.Info("enrichment disabled; tickets keep their fallback categorization")
	}

	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:   dispatcher,
		TicketRepo:   ticketRepo,
		CustomerRepo: customerRepo,
		GuestRepo:    guestRepo,
		Logger:       logger,
		Config:       cfg.Notification,
	})
	worker.StartNotificationWorker(notifications)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), customerRepo, staffRepo)
	guestMiddleware := auth.NewGuestMiddleware(tokenRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:            handlers.NewAuthHandler(authService),
		Tickets:         handlers.NewTicketsHandler(ticketService),
		StaffTickets:    handlers.NewStaffTicketsHandler(ticketService, assignmentService),
		Enrichment:      handlers.NewEnrichmentHandler(enricher, cfg.Reprocess),
		AuthMiddleware:  authMiddleware,
		GuestMiddleware: guestMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
