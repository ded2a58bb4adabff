package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/490273789/llmops-api/internal/domain"
	"github.com/490273789/llmops-api/internal/pkg/database"
	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/pkg/pagination"
	"github.com/490273789/llmops-api/internal/testutil"
)

// MockAppRepository is a mock implementation of AppRepository
type MockAppRepository struct {
	mock.Mock
}

func (m *MockAppRepository) Create(ctx context.Context, q database.Queryer, app *domain.App) error {
	args := m.Called(ctx, q, app)
	return args.Error(0)
}

func (m *MockAppRepository) GetByID(ctx context.Context, q database.Queryer, id uuid.UUID) (*domain.App, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.App), args.Error(1)
}

func (m *MockAppRepository) Update(ctx context.Context, q database.Queryer, app *domain.App) error {
	args := m.Called(ctx, q, app)
	return args.Error(0)
}

func (m *MockAppRepository) Delete(ctx context.Context, q database.Queryer, id uuid.UUID) error {
	args := m.Called(ctx, q, id)
	return args.Error(0)
}

func (m *MockAppRepository) ListByAccount(ctx context.Context, q database.Queryer, filter *domain.AppFilter) ([]domain.App, error) {
	args := m.Called(ctx, q, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.App), args.Error(1)
}

func newTestAppService() (*AppService, *testutil.FakeTx, *MockAppRepository) {
	tx := &testutil.FakeTx{}
	repo := new(MockAppRepository)
	return NewAppService(tx, repo, zap.NewNop()), tx, repo
}

func TestAppService_CreateApp(t *testing.T) {
	t.Run("defaults and commit", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		accountID := uuid.New()
		repo.On("Create", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.App")).Return(nil)

		app, err := svc.CreateApp(context.Background(), accountID, nil)

		require.NoError(t, err)
		assert.Equal(t, accountID, app.AccountID)
		assert.Equal(t, domain.DefaultAppName, app.Name)
		assert.Equal(t, domain.DefaultAppDescription, app.Description)
		assert.NotEqual(t, uuid.Nil, app.ID)
		assert.Equal(t, 1, tx.Commits)
		assert.Equal(t, 0, tx.Rollbacks)
		assert.Equal(t, []bool{true}, tx.InScope)
		repo.AssertExpectations(t)
	})

	t.Run("anonymous caller gets an account", func(t *testing.T) {
		svc, _, repo := newTestAppService()
		repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		app, err := svc.CreateApp(context.Background(), uuid.Nil, &domain.AppInput{Name: "助手", Icon: "robot.png"})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, app.AccountID)
		assert.Equal(t, "助手", app.Name)
		assert.Equal(t, "robot.png", app.Icon)
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		storeErr := errors.New("connection reset")
		repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(storeErr)

		app, err := svc.CreateApp(context.Background(), uuid.New(), nil)

		assert.Nil(t, app)
		assert.Same(t, storeErr, err)
		assert.Equal(t, 0, tx.Commits)
		assert.Equal(t, 1, tx.Rollbacks)
	})
}

func TestAppService_GetApp(t *testing.T) {
	accountID := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		app := testutil.NewTestApp(accountID)
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)

		got, err := svc.GetApp(context.Background(), accountID, app.ID)

		require.NoError(t, err)
		assert.Equal(t, app, got)
		assert.Zero(t, tx.Commits+tx.Rollbacks)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _, repo := newTestAppService()
		repo.On("GetByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)

		_, err := svc.GetApp(context.Background(), accountID, uuid.New())

		assert.True(t, apperrors.IsNotFound(err))
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("other account", func(t *testing.T) {
		svc, _, repo := newTestAppService()
		app := testutil.NewTestApp(uuid.New())
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)

		_, err := svc.GetApp(context.Background(), accountID, app.ID)

		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("ownership not checked without account", func(t *testing.T) {
		svc, _, repo := newTestAppService()
		app := testutil.NewTestApp(uuid.New())
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)

		got, err := svc.GetApp(context.Background(), uuid.Nil, app.ID)

		require.NoError(t, err)
		assert.Equal(t, app.ID, got.ID)
	})
}

func TestAppService_UpdateApp(t *testing.T) {
	accountID := uuid.New()
	name := "机器人2"

	t.Run("applies and commits", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		app := testutil.NewTestApp(accountID)
		before := app.UpdatedAt
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)
		repo.On("Update", mock.Anything, mock.Anything, mock.MatchedBy(func(a *domain.App) bool {
			return a.Name == name && a.Description == domain.DefaultAppDescription
		})).Return(nil)

		got, err := svc.UpdateApp(context.Background(), accountID, app.ID, &domain.AppUpdateInput{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, name, got.Name)
		assert.False(t, got.UpdatedAt.Before(before))
		assert.Equal(t, 1, tx.Commits)
		repo.AssertExpectations(t)
	})

	t.Run("missing app raised inside the scope rolls back", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		repo.On("GetByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)

		_, err := svc.UpdateApp(context.Background(), accountID, uuid.New(), &domain.AppUpdateInput{Name: &name})

		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, 0, tx.Commits)
		assert.Equal(t, 1, tx.Rollbacks)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("forbidden rolls back", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		app := testutil.NewTestApp(uuid.New())
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)

		_, err := svc.UpdateApp(context.Background(), accountID, app.ID, &domain.AppUpdateInput{Name: &name})

		assert.True(t, apperrors.IsForbidden(err))
		assert.Equal(t, 1, tx.Rollbacks)
	})

	t.Run("row gone before update", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		app := testutil.NewTestApp(accountID)
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)
		repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(database.ErrNotFound)

		_, err := svc.UpdateApp(context.Background(), accountID, app.ID, &domain.AppUpdateInput{Name: &name})

		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, 1, tx.Rollbacks)
	})

	t.Run("empty input", func(t *testing.T) {
		svc, tx, _ := newTestAppService()

		_, err := svc.UpdateApp(context.Background(), accountID, uuid.New(), &domain.AppUpdateInput{})

		assert.True(t, apperrors.IsValidateError(err))
		assert.Zero(t, tx.Commits+tx.Rollbacks)
	})
}

func TestAppService_DeleteApp(t *testing.T) {
	accountID := uuid.New()

	t.Run("deletes", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		app := testutil.NewTestApp(accountID)
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)
		repo.On("Delete", mock.Anything, mock.Anything, app.ID).Return(nil)

		got, err := svc.DeleteApp(context.Background(), accountID, app.ID)

		require.NoError(t, err)
		assert.Equal(t, app.ID, got.ID)
		assert.Equal(t, 1, tx.Commits)
	})

	t.Run("not found", func(t *testing.T) {
		svc, tx, repo := newTestAppService()
		repo.On("GetByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, database.ErrNotFound)

		_, err := svc.DeleteApp(context.Background(), accountID, uuid.New())

		assert.True(t, apperrors.IsNotFound(err))
		assert.Equal(t, 1, tx.Rollbacks)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAppService_AnonymousWrites(t *testing.T) {
	name := "pwned"
	owned := testutil.NewTestApp(uuid.New())

	t.Run("update rejected and rolled back", func(t *testing.T) {
		svc, tx, repo := newTestAppService()

		_, err := svc.UpdateApp(context.Background(), uuid.Nil, owned.ID, &domain.AppUpdateInput{Name: &name})

		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Equal(t, 0, tx.Commits)
		assert.Equal(t, 1, tx.Rollbacks)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delete rejected and rolled back", func(t *testing.T) {
		svc, tx, repo := newTestAppService()

		_, err := svc.DeleteApp(context.Background(), uuid.Nil, owned.ID)

		assert.True(t, apperrors.IsUnauthorized(err))
		assert.Equal(t, 0, tx.Commits)
		assert.Equal(t, 1, tx.Rollbacks)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("allowed without authentication", func(t *testing.T) {
		tx := &testutil.FakeTx{}
		repo := new(MockAppRepository)
		svc := NewAppService(tx, repo, zap.NewNop(), WithAnonymousWrites())
		app := testutil.NewTestApp(uuid.New())
		repo.On("GetByID", mock.Anything, mock.Anything, app.ID).Return(app, nil)
		repo.On("Delete", mock.Anything, mock.Anything, app.ID).Return(nil)

		_, err := svc.DeleteApp(context.Background(), uuid.Nil, app.ID)

		require.NoError(t, err)
		assert.Equal(t, 1, tx.Commits)
		repo.AssertExpectations(t)
	})
}

func TestAppService_NestedScopeRejected(t *testing.T) {
	svc, tx, repo := newTestAppService()
	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := tx.AutoCommit(context.Background(), func(ctx context.Context, _ database.Queryer) error {
		_, err := svc.CreateApp(ctx, uuid.New(), nil)
		return err
	})

	assert.ErrorIs(t, err, database.ErrNestedScope)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestAppService_ListApps(t *testing.T) {
	accountID := uuid.New()

	t.Run("paginates", func(t *testing.T) {
		svc, _, repo := newTestAppService()
		apps := []domain.App{*testutil.NewTestApp(accountID), *testutil.NewTestApp(accountID), *testutil.NewTestApp(accountID)}
		repo.On("ListByAccount", mock.Anything, mock.Anything, mock.MatchedBy(func(f *domain.AppFilter) bool {
			return f.AccountID == accountID && f.Limit == 2 && f.After == nil
		})).Return(apps, nil)

		page, err := svc.ListApps(context.Background(), accountID, 2, "")

		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)
		cursor, err := pagination.DecodeCursor(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, apps[1].ID, cursor.ID)
	})

	t.Run("forwards cursor", func(t *testing.T) {
		svc, _, repo := newTestAppService()
		after := pagination.Cursor{ID: uuid.New(), CreatedAt: time.Now().UTC()}
		repo.On("ListByAccount", mock.Anything, mock.Anything, mock.MatchedBy(func(f *domain.AppFilter) bool {
			return f.After != nil && f.After.ID == after.ID && f.Limit == pagination.DefaultLimit
		})).Return([]domain.App{}, nil)

		page, err := svc.ListApps(context.Background(), accountID, 0, after.Encode())

		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.False(t, page.HasMore)
	})

	t.Run("bad cursor", func(t *testing.T) {
		svc, _, _ := newTestAppService()

		_, err := svc.ListApps(context.Background(), accountID, 10, "%%%")

		assert.True(t, apperrors.IsValidateError(err))
	})

	t.Run("anonymous", func(t *testing.T) {
		svc, _, _ := newTestAppService()

		_, err := svc.ListApps(context.Background(), uuid.Nil, 10, "")

		assert.True(t, apperrors.IsUnauthorized(err))
	})
}

func TestAppService_CommitFailure(t *testing.T) {
	svc, tx, repo := newTestAppService()
	tx.CommitErr = errors.New("serialization failure")
	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	app, err := svc.CreateApp(context.Background(), uuid.New(), nil)

	assert.Nil(t, app)
	var commitErr *database.CommitError
	require.ErrorAs(t, err, &commitErr)
	assert.False(t, apperrors.IsAppError(err))
	assert.Equal(t, 1, tx.Commits)
	assert.Equal(t, 0, tx.Rollbacks)
}
