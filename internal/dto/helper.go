package dto

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/validator"
)

// ParseAndValidate parses the request body into v and validates it. Both an
// unreadable body and invalid fields raise a validate_error failure.
func ParseAndValidate(c *fiber.Ctx, v any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(v); err != nil {
			return apperrors.ValidateError("invalid request body").WithError(err)
		}
	}
	return validator.Validate(v)
}
