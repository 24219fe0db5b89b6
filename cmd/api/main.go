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

	httptransport "github.com/spec-kit/talent-auth/internal/api/http"
	"github.com/spec-kit/talent-auth/internal/api/http/handlers"
	"github.com/spec-kit/talent-auth/internal/auth"
	"github.com/spec-kit/talent-auth/internal/config"
	"github.com/spec-kit/talent-auth/internal/events"
	"github.com/spec-kit/talent-auth/internal/notify"
	"github.com/spec-kit/talent-auth/internal/observability"
	"github.com/spec-kit/talent-auth/internal/persistence"
	"github.com/spec-kit/talent-auth/internal/repository"
	"github.com/spec-kit/talent-auth/internal/service"
	"github.com/spec-kit/talent-auth/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var accounts repository.AccountRepository
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		accounts = repository.NewAccountRepository(pg.PoolHandle())
	} else {
		accounts = repository.NewMemoryAccountRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	limiter := auth.NewRedisAttemptLimiter(redis.Client, "talent-auth:attempts:", cfg.Auth.MaxCodeAttempts, cfg.Auth.AttemptWindow())

	gateway := buildGateway(cfg.Notification, logger)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Accounts:   accounts,
		Gateway:    gateway,
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Logger:     logger.Named("auth"),
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accounts, repository.ErrNotFound)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildGateway picks SMTP and Twilio when configured and falls back to the log
// gateway per channel otherwise.
func buildGateway(cfg config.NotificationConfig, logger *zap.Logger) notify.Gateway {
	fallback := notify.NewLogGateway(logger.Named("notify"))

	var email notify.Gateway = fallback
	if cfg.SMTPHost != "" {
		smtp, err := notify.NewSMTPGateway(cfg)
		if err != nil {
			logger.Fatal("failed to configure smtp gateway", zap.Error(err))
		}
		email = smtp
	} else {
		logger.Warn("NOTIFY_SMTP_HOST not set; email codes are only logged")
	}

	var phone notify.Gateway = fallback
	if cfg.TwilioAccountSID != "" {
		sms, err := notify.NewTwilioGateway(cfg)
		if err != nil {
			logger.Fatal("failed to configure twilio gateway", zap.Error(err))
		}
		phone = sms
	} else {
		logger.Warn("NOTIFY_TWILIO_ACCOUNT_SID not set; sms codes are only logged")
	}

	return notify.NewRouter(email, phone)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
