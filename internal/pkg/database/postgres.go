package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/config"
	"github.com/490273789/llmops-api/internal/pkg/logger"
	"github.com/490273789/llmops-api/internal/pkg/metrics"
)

// ErrNotFound is returned by repositories when a row does not exist
var ErrNotFound = errors.New("record not found")

// Queryer is the query surface shared by the pool and a transaction
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// beginner starts transactions; satisfied by *pgxpool.Pool
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresDB wraps a PostgreSQL connection pool
type PostgresDB struct {
	Pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL connection pool
func NewPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.Tracer = &queryTracer{}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.Int32("max_conns", cfg.MaxConns),
	)

	return &PostgresDB{Pool: pool}, nil
}

// Queryer returns the pool for reads outside a transaction
func (db *PostgresDB) Queryer() Queryer {
	return db.Pool
}

// Ping checks the connection
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the connection pool
func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// AutoCommit runs fn inside a transaction that is committed when fn returns
// nil and rolled back otherwise. See RunScope.
func (db *PostgresDB) AutoCommit(ctx context.Context, fn func(ctx context.Context, q Queryer) error) error {
	return autoCommit(ctx, db.Pool, fn)
}

func autoCommit(ctx context.Context, b beginner, fn func(ctx context.Context, q Queryer) error) error {
	if InScope(ctx) {
		return ErrNestedScope
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	return RunScope(ctx, &txSession{tx: tx}, func(ctx context.Context) error {
		return fn(ctx, tx)
	})
}

// txSession adapts pgx.Tx to Session and records the outcome
type txSession struct {
	tx pgx.Tx
}

func (s *txSession) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		metrics.RecordTransaction(metrics.TxCommitFailed)
		return err
	}
	metrics.RecordTransaction(metrics.TxCommitted)
	return nil
}

func (s *txSession) Rollback(ctx context.Context) error {
	metrics.RecordTransaction(metrics.TxRolledBack)
	err := s.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.Warn("failed to rollback transaction", zap.Error(err))
		return err
	}
	return nil
}

// queryTracer implements pgx.QueryTracer for metrics and slow query logging
type queryTracer struct{}

type queryStartKey struct{}
type querySQLKey struct{}

func (t *queryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx = context.WithValue(ctx, queryStartKey{}, time.Now())
	ctx = context.WithValue(ctx, querySQLKey{}, data.SQL)
	return ctx
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}

	duration := time.Since(start)
	sql, _ := ctx.Value(querySQLKey{}).(string)
	op := operation(sql)

	metrics.RecordDBQuery(op, duration)
	if data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows) {
		metrics.RecordDBError(op)
	}

	if duration > metrics.SlowQueryThreshold {
		logger.Warn("slow query detected",
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.String("sql", truncateSQL(sql, 200)),
		)
	}
}

// operation returns the lower-cased leading keyword of a statement
func operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}

func truncateSQL(sql string, maxLen int) string {
	if len(sql) <= maxLen {
		return sql
	}
	return sql[:maxLen] + "..."
}
