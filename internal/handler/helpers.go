package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/490273789/llmops-api/internal/middleware"
	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
)

// accountID returns the authenticated account, or uuid.Nil for anonymous callers
func accountID(c *fiber.Ctx) uuid.UUID {
	id, ok := middleware.GetAccountID(c)
	if !ok {
		return uuid.Nil
	}
	return id
}

// parseUUIDParam parses a path parameter as a UUID
func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidateError("invalid "+name).
			WithDetail(name, []string{"must be a valid UUID"}).
			WithError(err)
	}
	return id, nil
}

// parseQueryInt parses an integer query parameter with a default value.
func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}
