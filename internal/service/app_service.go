package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/domain"
	"github.com/490273789/llmops-api/internal/pkg/database"
	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/pkg/pagination"
)

// AppRepository defines app persistence operations
type AppRepository interface {
	Create(ctx context.Context, q database.Queryer, app *domain.App) error
	GetByID(ctx context.Context, q database.Queryer, id uuid.UUID) (*domain.App, error)
	Update(ctx context.Context, q database.Queryer, app *domain.App) error
	Delete(ctx context.Context, q database.Queryer, id uuid.UUID) error
	ListByAccount(ctx context.Context, q database.Queryer, filter *domain.AppFilter) ([]domain.App, error)
}

// TxRunner runs work inside a transaction scope, or directly on the pool
type TxRunner interface {
	AutoCommit(ctx context.Context, fn func(ctx context.Context, q database.Queryer) error) error
	Queryer() database.Queryer
}

// AppService handles app operations. Every mutation runs in one transaction
// scope, so a failure raised half way leaves the store untouched.
type AppService struct {
	db     TxRunner
	repo   AppRepository
	logger *zap.Logger

	anonymousWrites bool
}

// AppServiceOption configures an AppService
type AppServiceOption func(*AppService)

// WithAnonymousWrites lets callers without an account update and delete any
// app. Only for deployments running without authentication.
func WithAnonymousWrites() AppServiceOption {
	return func(s *AppService) {
		s.anonymousWrites = true
	}
}

// NewAppService creates a new app service
func NewAppService(db TxRunner, repo AppRepository, logger *zap.Logger, opts ...AppServiceOption) *AppService {
	s := &AppService{
		db:     db,
		repo:   repo,
		logger: logger.Named("apps"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateApp creates an app. An anonymous caller (uuid.Nil) gets a fresh account id.
func (s *AppService) CreateApp(ctx context.Context, accountID uuid.UUID, input *domain.AppInput) (*domain.App, error) {
	if accountID == uuid.Nil {
		accountID = uuid.New()
	}
	if input == nil {
		input = &domain.AppInput{}
	}

	now := time.Now().UTC()
	app := &domain.App{
		ID:          uuid.New(),
		AccountID:   accountID,
		Name:        input.Name,
		Icon:        input.Icon,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if app.Name == "" {
		app.Name = domain.DefaultAppName
	}
	if app.Description == "" {
		app.Description = domain.DefaultAppDescription
	}

	err := s.db.AutoCommit(ctx, func(ctx context.Context, q database.Queryer) error {
		return s.repo.Create(ctx, q, app)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("app created",
		zap.String("app_id", app.ID.String()),
		zap.String("account_id", app.AccountID.String()),
	)
	return app, nil
}

// GetApp returns an app the caller may see
func (s *AppService) GetApp(ctx context.Context, accountID, id uuid.UUID) (*domain.App, error) {
	return s.load(ctx, s.db.Queryer(), accountID, id, false)
}

// UpdateApp applies input to an app
func (s *AppService) UpdateApp(ctx context.Context, accountID, id uuid.UUID, input *domain.AppUpdateInput) (*domain.App, error) {
	if input == nil || input.IsEmpty() {
		return nil, apperrors.ValidateError("nothing to update")
	}

	var app *domain.App
	err := s.db.AutoCommit(ctx, func(ctx context.Context, q database.Queryer) error {
		var err error
		app, err = s.load(ctx, q, accountID, id, true)
		if err != nil {
			return err
		}

		input.Apply(app)
		app.UpdatedAt = time.Now().UTC()
		return appNotFound(s.repo.Update(ctx, q, app))
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

// DeleteApp deletes an app and returns it
func (s *AppService) DeleteApp(ctx context.Context, accountID, id uuid.UUID) (*domain.App, error) {
	var app *domain.App
	err := s.db.AutoCommit(ctx, func(ctx context.Context, q database.Queryer) error {
		var err error
		app, err = s.load(ctx, q, accountID, id, true)
		if err != nil {
			return err
		}
		return appNotFound(s.repo.Delete(ctx, q, id))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("app deleted", zap.String("app_id", id.String()))
	return app, nil
}

// ListApps returns a page of the caller's apps, newest first
func (s *AppService) ListApps(ctx context.Context, accountID uuid.UUID, limit int, after string) (*pagination.Page[domain.App], error) {
	if accountID == uuid.Nil {
		return nil, apperrors.Unauthorized("login required to list apps")
	}

	cursor, err := pagination.DecodeCursor(after)
	if err != nil {
		return nil, apperrors.ValidateError("invalid cursor").WithDetail("cursor", []string{err.Error()})
	}

	filter := &domain.AppFilter{
		AccountID: accountID,
		Limit:     pagination.ClampLimit(limit),
		After:     cursor,
	}
	apps, err := s.repo.ListByAccount(ctx, s.db.Queryer(), filter)
	if err != nil {
		return nil, err
	}

	page := pagination.NewPage(apps, filter.Limit, func(a domain.App) pagination.Cursor {
		return pagination.Cursor{ID: a.ID, CreatedAt: a.CreatedAt}
	})
	return &page, nil
}

// load fetches an app and checks that accountID owns it. An anonymous caller
// (uuid.Nil) may read any app but only writes with WithAnonymousWrites.
func (s *AppService) load(ctx context.Context, q database.Queryer, accountID, id uuid.UUID, write bool) (*domain.App, error) {
	if write && accountID == uuid.Nil && !s.anonymousWrites {
		return nil, apperrors.Unauthorized("login required to modify apps")
	}

	app, err := s.repo.GetByID(ctx, q, id)
	if err != nil {
		return nil, appNotFound(err)
	}
	if accountID != uuid.Nil && app.AccountID != accountID {
		return nil, apperrors.Forbidden("app belongs to another account")
	}
	return app, nil
}

func appNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return apperrors.NotFound("app not found").WithError(err)
	}
	return err
}
