package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/storefront-auth/internal/api/http"
	"github.com/spec-kit/storefront-auth/internal/api/http/handlers"
	"github.com/spec-kit/storefront-auth/internal/auth"
	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/observability"
	"github.com/spec-kit/storefront-auth/internal/persistence"
	"github.com/spec-kit/storefront-auth/internal/repository"
	"github.com/spec-kit/storefront-auth/internal/service"
	"github.com/spec-kit/storefront-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics(strings.ReplaceAll(cfg.App.Name, "-", "_"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	identities := repository.NewCachedIdentityResolver(
		userRepo,
		repository.NewRedisIdentityCache(redis.Client),
		cfg.Auth.IdentityCacheTTL,
		logger,
	)
	tokens := auth.NewTokenManager(cfg.Auth)

	dispatcher := events.NewInMemoryDispatcher()
	notifier := service.NewNotificationService(logger, cfg.Notification)
	notifications := worker.StartNotificationWorker(dispatcher, notifier, logger, 2, 256)

	authService := service.NewAuthService(service.AuthDependencies{
		Users:      userRepo,
		Resets:     resetRepo,
		Tokens:     tokens,
		Identities: identities,
		Cache:      identities,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.MaxBodyBytes(),
		ErrorHandler: httptransport.ErrorHandler(logger, metrics, cfg.App.MaxBodyMB),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:          handlers.NewAuthHandler(authService),
		Accounts:      handlers.NewAccountsHandler(authService),
		Authenticator: auth.NewAuthenticator(tokens, identities),
		Metrics:       metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	notifications.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
