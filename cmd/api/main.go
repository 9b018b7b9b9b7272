package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/hakchin/ppst/internal/config"
	"github.com/hakchin/ppst/internal/database"
	"github.com/hakchin/ppst/internal/handler"
	"github.com/hakchin/ppst/internal/middleware"
	"github.com/hakchin/ppst/internal/observability"
	"github.com/hakchin/ppst/internal/ratelimit"
	"github.com/hakchin/ppst/internal/repository"
	"github.com/hakchin/ppst/internal/router"
	"github.com/hakchin/ppst/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.AppEnv)

	contactRepo := repository.NewFileContactRepository(cfg.ContactsDir)
	if err := contactRepo.EnsureDir(); err != nil {
		logger.Fatal().Err(err).Str("dir", contactRepo.Dir()).Msg("contact storage directory unavailable")
	}

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	cooldown := ratelimit.NewCooldown(cfg.RateLimitWindow)
	cooldown.StartJanitor(appCtx, cfg.RateLimitSweepInterval)
	observability.TrackRateLimitClients(cooldown.Len)

	validate := validator.New(validator.WithRequiredStructEnabled())
	contactValidator, err := service.NewContactValidator(validate, cfg.ContactPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build contact validator")
	}

	var serviceOpts []service.ContactServiceOption
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(appCtx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		serviceOpts = append(serviceOpts, service.WithDuplicateGuard(service.NewRedisDuplicateGuard(redisClient, cfg.DedupeTTL)))
	} else {
		logger.Info().Msg("redis url not set, duplicate submission guard disabled")
	}

	contactService := service.NewContactService(contactRepo, cooldown, contactValidator, logger, serviceOpts...)

	deps := router.Dependencies{
		ContactHandler: handler.NewContactHandler(contactService, cooldown.Window(), logger),
		StoreProbe:     contactRepo,
	}
	if cfg.ExportEnabled() {
		deps.ExportHandler = handler.NewContactExportHandler(contactService, logger)
		deps.ExportGuards = []fiber.Handler{
			middleware.JWTProtected(cfg.ExportJWTSecret),
			middleware.RequireRole(middleware.ExportRole),
			middleware.RateLimit("contacts-export", cfg.ExportRequestsPerMinute, time.Minute),
		}
	} else {
		logger.Warn().Msg("export jwt secret not set, export routes disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ProxyHeader:  cfg.ProxyHeader,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		MetricsPath: router.MetricsPath,
		CORSOrigins: cfg.CORSOrigins,
	})
	router.Register(app, cfg, deps)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("contacts_dir", contactRepo.Dir()).Dur("rate_limit", cooldown.Window()).Msg("server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
