package middleware

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
)

const localsSentryHub = "sentry_hub"

// SentryConfig holds Sentry-specific configuration
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	Debug            bool
	SampleRate       float64
	TracesSampleRate float64
}

// InitSentry initializes the Sentry SDK
func InitSentry(config SentryConfig) error {
	if config.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              config.DSN,
		Environment:      config.Environment,
		Release:          config.Release,
		Debug:            config.Debug,
		SampleRate:       config.SampleRate,
		TracesSampleRate: config.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}

	return nil
}

// FlushSentry flushes any buffered events to Sentry
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// RecoverConfig configures the recover middleware
type RecoverConfig struct {
	// StackSize limits the captured stack trace
	StackSize int
	// SentryEnabled attaches a per-request Sentry hub
	SentryEnabled bool
}

// DefaultRecoverConfig returns default recover config
func DefaultRecoverConfig() RecoverConfig {
	return RecoverConfig{
		StackSize:     8 << 10,
		SentryEnabled: false,
	}
}

// Recover turns a panic in the rest of the chain into a *PanicError so that
// it reaches the error handler like any other failure. It does not log.
func Recover(config RecoverConfig) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		if config.SentryEnabled {
			hub := sentry.CurrentHub().Clone()
			setSentryRequestContext(hub, c)
			hub.Scope().SetTag("request_id", GetRequestID(c))
			c.Locals(localsSentryHub, hub)
		}

		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				if config.StackSize > 0 && len(stack) > config.StackSize {
					stack = stack[:config.StackSize]
				}
				err = &PanicError{Value: r, Stack: stack}
			}
		}()

		return c.Next()
	}
}

// CaptureError reports an error to Sentry from a Fiber context
func CaptureError(c *fiber.Ctx, err error) {
	hub := sentryHub(c)

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetExtra("path", c.Path())
		scope.SetExtra("method", c.Method())
		scope.SetTag("request_id", GetRequestID(c))
		var pe *PanicError
		if errors.As(err, &pe) {
			scope.SetLevel(sentry.LevelFatal)
			scope.SetExtra("stack_trace", string(pe.Stack))
		}
		hub.CaptureException(err)
	})
}

// setSentryRequestContext sets request context on a Sentry hub from Fiber context
func setSentryRequestContext(hub *sentry.Hub, c *fiber.Ctx) {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		k := string(key)
		if k != "Authorization" && k != "Cookie" {
			headers[k] = string(value)
		}
	})

	hub.Scope().SetContext("Request", map[string]interface{}{
		"url":          c.OriginalURL(),
		"method":       c.Method(),
		"headers":      headers,
		"query_string": string(c.Request().URI().QueryString()),
		"remote_addr":  c.IP(),
	})
}
