package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/HarshChauhan10/Queues/internal/api/http"
	"github.com/HarshChauhan10/Queues/internal/api/http/handlers"
	"github.com/HarshChauhan10/Queues/internal/auth"
	"github.com/HarshChauhan10/Queues/internal/config"
	"github.com/HarshChauhan10/Queues/internal/events"
	"github.com/HarshChauhan10/Queues/internal/observability"
	"github.com/HarshChauhan10/Queues/internal/persistence"
	"github.com/HarshChauhan10/Queues/internal/repository"
	"github.com/HarshChauhan10/Queues/internal/scheduler"
	"github.com/HarshChauhan10/Queues/internal/service"
	"github.com/HarshChauhan10/Queues/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	queueRepo := repository.NewQueueRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	instituteRepo := repository.NewInstituteRepository(pool)

	requeueScheduler := scheduler.New(queueRepo, dispatcher, logger, metrics)
	defer requeueScheduler.Close()

	queueService := service.NewQueueService(service.QueueDependencies{
		QueueRepo:     queueRepo,
		InstituteRepo: instituteRepo,
		Dispatcher:    dispatcher,
		Scheduler:     requeueScheduler,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:      userRepo,
		InstituteRepo: instituteRepo,
	})
	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Queue)
	worker.StartNotificationWorker(notificationService)

	// Re-derive the requeue schedule from store state; entries whose
	// windows elapsed while the process was down are requeued here.
	if err := requeueScheduler.Rescan(ctx); err != nil {
		logger.Fatal("failed to rebuild requeue schedule", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, instituteRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Institutes:     handlers.NewInstitutesHandler(authService),
		Queues:         handlers.NewQueuesHandler(queueService),
		AuthMiddleware: authMiddleware,
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
