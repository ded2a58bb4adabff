// Command migrate applies the embedded schema migrations and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/pkg/database"
	"github.com/490273789/llmops-api/internal/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list pending migrations without applying them")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dsn := cfg.Postgres.DSN()
	if *dryRun {
		pending, err := database.PendingMigrations(ctx, dsn)
		if err != nil {
			logger.Fatal("failed to list migrations", zap.Error(err))
		}
		logger.Info("pending migrations", zap.Strings("versions", pending))
		return
	}

	applied, err := database.Migrate(ctx, dsn)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("migrations applied", zap.Strings("versions", applied))
}
