package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/490273789/llmops-api/internal/domain"
	"github.com/490273789/llmops-api/internal/pkg/database"
	"github.com/490273789/llmops-api/internal/pkg/pagination"
	"github.com/490273789/llmops-api/internal/testutil"
)

// createTestApp creates an app with test data
func createTestApp(accountID uuid.UUID, name string, createdAt time.Time) *domain.App {
	app := testutil.NewTestApp(accountID)
	app.Name = name
	app.CreatedAt = createdAt
	app.UpdatedAt = createdAt
	return app
}

func TestAppRepository_CreateAndGet(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAppRepository()
	ctx := context.Background()
	accountID := uuid.New()
	defer cleanupApps(t, db, accountID)

	app := createTestApp(accountID, "Test App Create", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, db.Queryer(), app))

	fetched, err := repo.GetByID(ctx, db.Queryer(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, fetched.ID)
	assert.Equal(t, app.AccountID, fetched.AccountID)
	assert.Equal(t, app.Name, fetched.Name)
	assert.True(t, app.CreatedAt.Equal(fetched.CreatedAt))
}

func TestAppRepository_GetByID_NotFound(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	_, err := NewAppRepository().GetByID(context.Background(), db.Queryer(), uuid.New())
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestAppRepository_UpdateDelete(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAppRepository()
	ctx := context.Background()
	accountID := uuid.New()
	defer cleanupApps(t, db, accountID)

	app := createTestApp(accountID, "Test App Update", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, db.Queryer(), app))

	app.Name = "机器人2"
	app.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, db.Queryer(), app))

	fetched, err := repo.GetByID(ctx, db.Queryer(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, "机器人2", fetched.Name)

	require.NoError(t, repo.Delete(ctx, db.Queryer(), app.ID))
	assert.ErrorIs(t, repo.Delete(ctx, db.Queryer(), app.ID), database.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, db.Queryer(), app), database.ErrNotFound)
}

func TestAppRepository_ListByAccount(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAppRepository()
	ctx := context.Background()
	accountID := uuid.New()
	defer cleanupApps(t, db, accountID)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		app := createTestApp(accountID, "Test App List", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, db.Queryer(), app))
	}

	first, err := repo.ListByAccount(ctx, db.Queryer(), &domain.AppFilter{AccountID: accountID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	rest, err := repo.ListByAccount(ctx, db.Queryer(), &domain.AppFilter{
		AccountID: accountID,
		Limit:     2,
		After:     &pagination.Cursor{ID: first[1].ID, CreatedAt: first[1].CreatedAt},
	})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, first[2].ID, rest[0].ID)
}

// Scenario: a failure inside the scope leaves nothing behind
func TestAppRepository_AutoCommitRollback(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	repo := NewAppRepository()
	ctx := context.Background()
	accountID := uuid.New()
	defer cleanupApps(t, db, accountID)

	committed := createTestApp(accountID, "Test App Commit", time.Now().UTC())
	err := db.AutoCommit(ctx, func(ctx context.Context, q database.Queryer) error {
		return repo.Create(ctx, q, committed)
	})
	require.NoError(t, err)

	rolledBack := createTestApp(accountID, "Test App Rollback", time.Now().UTC())
	boom := errors.New("boom")
	err = db.AutoCommit(ctx, func(ctx context.Context, q database.Queryer) error {
		if err := repo.Create(ctx, q, rolledBack); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)

	_, err = repo.GetByID(ctx, db.Queryer(), committed.ID)
	assert.NoError(t, err)
	_, err = repo.GetByID(ctx, db.Queryer(), rolledBack.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
