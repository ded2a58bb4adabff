package middleware

import (
	"errors"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
	"github.com/490273789/llmops-api/internal/pkg/response"
)

var faultsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "llmops_faults_total",
		Help: "Failed requests by envelope code",
	},
	[]string{"code", "classified"},
)

// PanicError carries a recovered panic value and the stack it was raised on
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// FaultTranslatorConfig configures the fault translator
type FaultTranslatorConfig struct {
	// Debug hands unclassified failures to fiber's default handler
	Debug  bool
	Logger *zap.Logger
	// SentryEnabled reports unclassified failures to Sentry
	SentryEnabled bool
}

// FaultTranslator turns every failure that leaves a handler into a response
// envelope. It is installed as the application's only fiber ErrorHandler.
type FaultTranslator struct {
	config FaultTranslatorConfig
}

// NewFaultTranslator creates a new fault translator
func NewFaultTranslator(config FaultTranslatorConfig) *FaultTranslator {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &FaultTranslator{config: config}
}

// Translate classifies err. Domain failures always produce an envelope with
// their own code, message and data. Anything else produces a generic fail
// envelope carrying the error text, unless the translator runs in debug mode,
// in which case err is returned unchanged and no envelope is produced.
func (t *FaultTranslator) Translate(err error) (response.Response, error) {
	if appErr := classify(err); appErr != nil {
		return response.New(appErr.Code, appErr.Message, appErr.Payload()), nil
	}
	if t.config.Debug {
		return response.Response{}, err
	}
	return response.New(response.CodeFail, err.Error(), nil), nil
}

// Handle is the fiber.ErrorHandler
func (t *FaultTranslator) Handle(c *fiber.Ctx, err error) error {
	t.report(c, err)

	resp, err := t.Translate(err)
	if err != nil {
		return diagnose(c, err)
	}
	return response.JSON(c, resp)
}

// NotFound terminates the chain for routes nothing else matched
func NotFound(c *fiber.Ctx) error {
	return apperrors.NotFound(fmt.Sprintf("route %s %s not found", c.Method(), c.Path()))
}

// classify returns the domain failure carried by err, or nil when err is
// unclassified. Errors raised by fiber itself are unclassified.
func classify(err error) *apperrors.AppError {
	return apperrors.GetAppError(err)
}

func (t *FaultTranslator) report(c *fiber.Ctx, err error) {
	fields := []zap.Field{
		zap.String("request_id", GetRequestID(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
	}

	if appErr := classify(err); appErr != nil {
		faultsTotal.WithLabelValues(appErr.Code.String(), "true").Inc()
		fields = append(fields,
			zap.String("code", appErr.Code.String()),
			zap.String("message", appErr.Message),
		)
		if appErr.Err != nil {
			fields = append(fields, zap.NamedError("cause", appErr.Err))
		}
		t.config.Logger.Warn("request failed", fields...)
		return
	}

	faultsTotal.WithLabelValues(response.CodeFail.String(), "false").Inc()
	fields = append(fields, zap.Error(err))
	var pe *PanicError
	if errors.As(err, &pe) {
		fields = append(fields, zap.ByteString("stack", pe.Stack))
	}
	t.config.Logger.Error("unhandled error", fields...)

	if t.config.SentryEnabled {
		CaptureError(c, err)
	}
}

// diagnose writes fiber's plain text error page, with the stack for panics
func diagnose(c *fiber.Ctx, err error) error {
	var pe *PanicError
	if errors.As(err, &pe) {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fiber.StatusInternalServerError).
			SendString(fmt.Sprintf("panic: %s\n\n%s", pe.Error(), pe.Stack))
	}
	return fiber.DefaultErrorHandler(c, err)
}

// sentryHub returns the request hub stored by Recover, or a clone of the current one
func sentryHub(c *fiber.Ctx) *sentry.Hub {
	if hub, ok := c.Locals(localsSentryHub).(*sentry.Hub); ok && hub != nil {
		return hub
	}
	hub := sentry.CurrentHub().Clone()
	setSentryRequestContext(hub, c)
	return hub
}
