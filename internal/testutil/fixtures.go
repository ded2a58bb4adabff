// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/490273789/llmops-api/internal/domain"
	"github.com/490273789/llmops-api/internal/pkg/database"
)

// NewTestApp creates a test app with default values.
func NewTestApp(accountID uuid.UUID) *domain.App {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.App{
		ID:          uuid.New(),
		AccountID:   accountID,
		Name:        domain.DefaultAppName,
		Icon:        "",
		Description: domain.DefaultAppDescription,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FakeTx runs AutoCommit through the real transaction scope over a session
// that only counts how each scope ended. Queryer is always nil, so it pairs
// with mocked repositories.
type FakeTx struct {
	Commits   int
	Rollbacks int
	// InScope records, per AutoCommit body, whether its context was marked
	InScope []bool
	// CommitErr is returned by every Commit when set
	CommitErr error
}

// AutoCommit implements the service TxRunner
func (f *FakeTx) AutoCommit(ctx context.Context, fn func(ctx context.Context, q database.Queryer) error) error {
	return database.RunScope(ctx, f, func(ctx context.Context) error {
		f.InScope = append(f.InScope, database.InScope(ctx))
		return fn(ctx, nil)
	})
}

// Queryer returns nil
func (f *FakeTx) Queryer() database.Queryer { return nil }

// Commit implements database.Session
func (f *FakeTx) Commit(context.Context) error {
	f.Commits++
	return f.CommitErr
}

// Rollback implements database.Session
func (f *FakeTx) Rollback(context.Context) error {
	f.Rollbacks++
	return nil
}
