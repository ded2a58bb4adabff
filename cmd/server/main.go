package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/middleware"
	"github.com/490273789/llmops-api/internal/pkg/logger"
)

const appVersion = "0.1.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer func() { _ = logger.Sync() }()

	// Initialize Sentry if enabled
	sentryEnabled := cfg.Sentry.Enabled && cfg.Sentry.DSN != ""
	if sentryEnabled {
		sentryConfig := middleware.SentryConfig{
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     "llmops-api@" + appVersion,
			SampleRate:  cfg.Sentry.SampleRate,
		}
		if sentryConfig.Environment == "" {
			sentryConfig.Environment = cfg.Server.Env
		}

		if err := middleware.InitSentry(sentryConfig); err != nil {
			log.Error("failed to initialize Sentry", zap.Error(err))
			sentryEnabled = false
		} else {
			log.Info("Sentry initialized", zap.String("environment", sentryConfig.Environment))
			defer middleware.FlushSentry(5 * time.Second)
		}
	}

	ctx := context.Background()

	// Initialize dependencies
	deps, err := initDependencies(ctx, cfg, log, sentryEnabled)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	// Create Fiber app. The fault translator is the only error handler.
	app := fiber.New(fiber.Config{
		AppName:               "LLMOps API",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          deps.Translator.Handle,
	})

	// Apply global middleware
	app.Use(middleware.RequestID())

	metricsMiddleware := middleware.NewMetricsMiddleware(middleware.DefaultMetricsConfig())
	app.Use(metricsMiddleware.Handler())

	loggerMiddleware := middleware.NewLoggerMiddleware(middleware.DefaultLoggerConfig(log))
	app.Use(loggerMiddleware.Handler())

	recoverConfig := middleware.DefaultRecoverConfig()
	recoverConfig.SentryEnabled = sentryEnabled
	app.Use(middleware.Recover(recoverConfig))

	corsMiddleware := middleware.NewCORSMiddleware(middleware.DefaultCORSConfig())
	app.Use(corsMiddleware.Handler())

	// Register routes
	registerRoutes(app, deps)

	// Start server
	go func() {
		addr := cfg.Server.Addr()
		log.Info("starting server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.Bool("debug", cfg.IsDebug()),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}
