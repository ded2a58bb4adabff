package errors

import (
	"errors"
	"fmt"

	"github.com/490273789/llmops-api/internal/pkg/response"
)

// AppError is a domain failure
type AppError struct {
	Code    response.Code  `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Err     error          `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithData replaces the data payload
func (e *AppError) WithData(data map[string]any) *AppError {
	e.Data = data
	return e
}

// WithDetail adds a single entry to the data payload
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// WithError attaches the cause. The cause is never shown to clients.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// Payload returns the data payload, never nil
func (e *AppError) Payload() map[string]any {
	if e.Data == nil {
		return map[string]any{}
	}
	return e.Data
}

func newError(code response.Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Fail creates a generic failure
func Fail(message string) *AppError {
	return newError(response.CodeFail, message)
}

// NotFound creates a not found failure
func NotFound(message string) *AppError {
	return newError(response.CodeNotFound, message)
}

// Unauthorized creates an unauthorized failure
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(response.CodeUnauthorized, message)
}

// Forbidden creates a forbidden failure
func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(response.CodeForbidden, message)
}

// ValidateError creates a validation failure
func ValidateError(message string) *AppError {
	return newError(response.CodeValidateError, message)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func hasCode(err error, code response.Code) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsFail checks if the error is a generic failure
func IsFail(err error) bool {
	return hasCode(err, response.CodeFail)
}

// IsNotFound checks if the error is a not found failure
func IsNotFound(err error) bool {
	return hasCode(err, response.CodeNotFound)
}

// IsUnauthorized checks if the error is an unauthorized failure
func IsUnauthorized(err error) bool {
	return hasCode(err, response.CodeUnauthorized)
}

// IsForbidden checks if the error is a forbidden failure
func IsForbidden(err error) bool {
	return hasCode(err, response.CodeForbidden)
}

// IsValidateError checks if the error is a validation failure
func IsValidateError(err error) bool {
	return hasCode(err, response.CodeValidateError)
}
