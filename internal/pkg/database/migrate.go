package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/migration"
	"github.com/490273789/llmops-api/internal/pkg/logger"
)

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

const recordMigration = `INSERT INTO schema_migrations (version) VALUES ($1)`

// migrationTx is a begun transaction a migration runs in
type migrationTx interface {
	Session
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqlxSession adapts *sqlx.Tx to Session
type sqlxSession struct {
	tx *sqlx.Tx
}

func (s sqlxSession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

func (s sqlxSession) Commit(context.Context) error {
	return s.tx.Commit()
}

func (s sqlxSession) Rollback(context.Context) error {
	return s.tx.Rollback()
}

// applyMigration runs one migration body and records its version in a
// single transaction scope
func applyMigration(ctx context.Context, tx migrationTx, name, body string) error {
	err := RunScope(ctx, tx, func(ctx context.Context) error {
		if _, err := tx.ExecContext(ctx, body); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, recordMigration, name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		return nil
	})

	var commitErr *CommitError
	if errors.As(err, &commitErr) {
		return fmt.Errorf("migration %s: %w", name, err)
	}
	return err
}

// Migrator applies embedded SQL migrations
type Migrator struct {
	db   *sqlx.DB
	fsys fs.FS
}

// NewMigrator connects to PostgreSQL through lib/pq
func NewMigrator(ctx context.Context, dsn string) (*Migrator, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect for migrations: %w", err)
	}
	return &Migrator{db: db, fsys: migration.FS}, nil
}

// Close closes the migration connection
func (m *Migrator) Close() error {
	return m.db.Close()
}

// Pending lists migrations that have not been applied yet
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	if err := m.db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}

	all, err := listMigrations(m.fsys)
	if err != nil {
		return nil, err
	}
	return pending(all, applied), nil
}

// Up applies every pending migration, each in its own transaction
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	todo, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, name := range todo {
		body, err := fs.ReadFile(m.fsys, name)
		if err != nil {
			return done, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		tx, err := m.db.BeginTxx(ctx, nil)
		if err != nil {
			return done, fmt.Errorf("failed to begin migration %s: %w", name, err)
		}
		if err := applyMigration(ctx, sqlxSession{tx: tx}, name, string(body)); err != nil {
			return done, err
		}

		logger.Info("applied migration", zap.String("version", name))
		done = append(done, name)
	}
	return done, nil
}

// Migrate applies pending migrations against dsn
func Migrate(ctx context.Context, dsn string) ([]string, error) {
	m, err := NewMigrator(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.Up(ctx)
}

// PendingMigrations lists migrations not yet applied against dsn
func PendingMigrations(ctx context.Context, dsn string) ([]string, error) {
	m, err := NewMigrator(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return m.Pending(ctx)
}

func listMigrations(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func pending(all, applied []string) []string {
	seen := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		seen[strings.TrimSpace(v)] = struct{}{}
	}

	var out []string
	for _, name := range all {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
