package dto

import "github.com/490273789/llmops-api/internal/domain"

// CreateAppRequest is the body of POST /app. Every field is optional.
type CreateAppRequest struct {
	Name        string `json:"name" validate:"omitempty,min=1,max=255"`
	Icon        string `json:"icon" validate:"omitempty,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

// ToInput converts the request to a domain input
func (r *CreateAppRequest) ToInput() *domain.AppInput {
	return &domain.AppInput{
		Name:        r.Name,
		Icon:        r.Icon,
		Description: r.Description,
	}
}

// UpdateAppRequest is the body of POST /app/:id
type UpdateAppRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Icon        *string `json:"icon" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ToInput converts the request to a domain input
func (r *UpdateAppRequest) ToInput() *domain.AppUpdateInput {
	return &domain.AppUpdateInput{
		Name:        r.Name,
		Icon:        r.Icon,
		Description: r.Description,
	}
}
