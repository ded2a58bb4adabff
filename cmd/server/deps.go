package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/handler"
	"github.com/490273789/llmops-api/internal/middleware"
	"github.com/490273789/llmops-api/internal/pkg/database"
	"github.com/490273789/llmops-api/internal/pkg/prompt"
	pgrepo "github.com/490273789/llmops-api/internal/repository/postgres"
	"github.com/490273789/llmops-api/internal/service"
)

// Dependencies holds all application dependencies. It is built once at
// startup and passed down explicitly.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	// Database connections
	Postgres *database.PostgresDB
	Redis    *database.RedisDB

	// Services
	AppService    *service.AppService
	PromptService *service.PromptService

	// Handlers
	HealthHandler  *handler.HealthHandler
	AppsHandler    *handler.AppsHandler
	PromptsHandler *handler.PromptsHandler

	// Middleware
	Translator    *middleware.FaultTranslator
	Authenticator *middleware.Authenticator
	Limiter       middleware.Limiter
}

// initDependencies initializes all dependencies
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, sentryEnabled bool) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Migrations.Auto {
		applied, err := database.Migrate(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}

	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	deps.Postgres = pgDB

	if cfg.Redis.Enabled {
		rdb, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		deps.Redis = rdb
	}

	library, err := loadLibrary(cfg.Prompt.LibraryPath, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	// Services
	var appOpts []service.AppServiceOption
	if !cfg.Auth.Enabled {
		appOpts = append(appOpts, service.WithAnonymousWrites())
	}
	deps.AppService = service.NewAppService(pgDB, pgrepo.NewAppRepository(), logger, appOpts...)
	deps.PromptService = service.NewPromptService(library)

	// Handlers
	checks := map[string]handler.Pinger{"postgres": pgDB}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	deps.HealthHandler = handler.NewHealthHandler(checks, appVersion)
	deps.AppsHandler = handler.NewAppsHandler(deps.AppService)
	deps.PromptsHandler = handler.NewPromptsHandler(deps.PromptService)

	// Middleware
	deps.Translator = middleware.NewFaultTranslator(middleware.FaultTranslatorConfig{
		Debug:         cfg.IsDebug(),
		Logger:        logger,
		SentryEnabled: sentryEnabled,
	})
	if cfg.Auth.Enabled {
		deps.Authenticator = middleware.NewAuthenticator(cfg.Auth)
	}
	if cfg.RateLimit.Enabled {
		if deps.Redis != nil {
			limit := cfg.RateLimit.RequestsPerSecond * int(cfg.RateLimit.Window.Seconds())
			deps.Limiter = middleware.NewRedisLimiter(deps.Redis, limit, cfg.RateLimit.Window)
		} else {
			deps.Limiter = middleware.NewLocalLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		}
	}

	return deps, nil
}

// loadLibrary reads the prompt library; an empty path yields an empty library
func loadLibrary(path string, logger *zap.Logger) (*prompt.Library, error) {
	if path == "" {
		logger.Warn("no prompt library configured")
		return prompt.NewLibrary(), nil
	}

	library, err := prompt.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt library %s: %w", path, err)
	}
	logger.Info("prompt library loaded",
		zap.String("path", path),
		zap.Int("prompts", len(library.Entries())),
	)
	return library, nil
}

// Close closes all connections
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn("failed to close Redis", zap.Error(err))
		}
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
}
