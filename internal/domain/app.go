package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/490273789/llmops-api/internal/pkg/pagination"
)

// Default values applied when an app is created without them
const (
	DefaultAppName        = "测试机器人"
	DefaultAppDescription = "这是一个简单的聊天机器人"
)

// App is an LLM application owned by an account
type App struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"accountId"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AppInput represents input for creating an app
type AppInput struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Icon        string `json:"icon,omitempty" validate:"omitempty,max=255"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// AppUpdateInput represents input for updating an app. Nil fields are left unchanged.
type AppUpdateInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// IsEmpty reports whether the update changes nothing
func (in AppUpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Icon == nil && in.Description == nil
}

// Apply copies the set fields onto app
func (in AppUpdateInput) Apply(app *App) {
	if in.Name != nil {
		app.Name = *in.Name
	}
	if in.Icon != nil {
		app.Icon = *in.Icon
	}
	if in.Description != nil {
		app.Description = *in.Description
	}
}

// AppFilter represents filter options for listing apps
type AppFilter struct {
	AccountID uuid.UUID
	Limit     int
	After     *pagination.Cursor
}
