package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/490273789/llmops-api/internal/domain"
	"github.com/490273789/llmops-api/internal/pkg/database"
)

const appColumns = `id, account_id, name, icon, description, created_at, updated_at`

// AppRepository handles app data operations in PostgreSQL.
// Every method takes the Queryer to run on, so callers decide whether a
// statement joins a transaction scope or runs on the pool.
type AppRepository struct{}

// NewAppRepository creates a new app repository
func NewAppRepository() *AppRepository {
	return &AppRepository{}
}

// Create inserts a new app
func (r *AppRepository) Create(ctx context.Context, q database.Queryer, app *domain.App) error {
	query := `
		INSERT INTO apps (` + appColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		app.ID,
		app.AccountID,
		app.Name,
		app.Icon,
		app.Description,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return nil
}

// GetByID retrieves an app by ID
func (r *AppRepository) GetByID(ctx context.Context, q database.Queryer, id uuid.UUID) (*domain.App, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE id = $1`

	app, err := scanApp(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	return app, nil
}

// Update writes name, icon and description and refreshes updated_at
func (r *AppRepository) Update(ctx context.Context, q database.Queryer, app *domain.App) error {
	query := `
		UPDATE apps
		SET name = $2, icon = $3, description = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		app.ID,
		app.Name,
		app.Icon,
		app.Description,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}

	return nil
}

// Delete deletes an app
func (r *AppRepository) Delete(ctx context.Context, q database.Queryer, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM apps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}

	return nil
}

// ListByAccount returns up to filter.Limit+1 apps of an account, newest first,
// starting after filter.After when set
func (r *AppRepository) ListByAccount(ctx context.Context, q database.Queryer, filter *domain.AppFilter) ([]domain.App, error) {
	query := `SELECT ` + appColumns + ` FROM apps WHERE account_id = $1`
	args := []any{filter.AccountID}

	if filter.After != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, filter.After.CreatedAt, filter.After.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, filter.Limit+1)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	defer rows.Close()

	apps := []domain.App{}
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}

	return apps, nil
}

func scanApp(row pgx.Row) (*domain.App, error) {
	var app domain.App
	err := row.Scan(
		&app.ID,
		&app.AccountID,
		&app.Name,
		&app.Icon,
		&app.Description,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
