package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const localsRequestID = "requestID"

type requestIDKey struct{}

// RequestIDConfig configures the request ID middleware
type RequestIDConfig struct {
	// Header is the header key for the request ID
	Header string
	// Generator generates a new request ID
	Generator func() string
}

// DefaultRequestIDConfig returns default request ID config
func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.New().String()
		},
	}
}

// RequestID tags every request with an id. The id is echoed in the response
// header and carried on both the fiber locals and the user context.
func RequestID(config ...RequestIDConfig) fiber.Handler {
	cfg := DefaultRequestIDConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(cfg.Header)
		if requestID == "" {
			requestID = cfg.Generator()
		}

		c.Set(cfg.Header, requestID)
		c.Locals(localsRequestID, requestID)
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey{}, requestID))

		return c.Next()
	}
}

// GetRequestID gets the request ID from the fiber context
func GetRequestID(c *fiber.Ctx) string {
	if requestID, ok := c.Locals(localsRequestID).(string); ok {
		return requestID
	}
	return ""
}

// RequestIDFromContext gets the request ID from a context.Context
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
