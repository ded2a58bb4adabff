package response

import (
	"sort"

	"github.com/gofiber/fiber/v2"
)

// Response is the wire envelope
type Response struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// New builds an envelope, substituting an empty object for nil data
func New(code Code, message string, data any) Response {
	if data == nil {
		data = fiber.Map{}
	}
	return Response{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// JSON writes the envelope as the response body
func JSON(c *fiber.Ctx, resp Response) error {
	if resp.Data == nil {
		resp.Data = fiber.Map{}
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// SuccessJSON writes a success envelope carrying data
func SuccessJSON(c *fiber.Ctx, data any) error {
	return JSON(c, New(CodeSuccess, "", data))
}

// FailJSON writes a fail envelope carrying data
func FailJSON(c *fiber.Ctx, data any) error {
	return JSON(c, New(CodeFail, "", data))
}

// ValidateJSON writes a validation failure. The message is the first error of
// the alphabetically first field so that equal inputs render equal bodies.
func ValidateJSON(c *fiber.Ctx, errors map[string][]string) error {
	fields := make([]string, 0, len(errors))
	for field := range errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	message := ""
	data := make(fiber.Map, len(errors))
	for _, field := range fields {
		msgs := errors[field]
		if message == "" && len(msgs) > 0 {
			message = msgs[0]
		}
		data[field] = msgs
	}
	return JSON(c, New(CodeValidateError, message, data))
}

// Message writes an envelope with a message and empty data
func Message(c *fiber.Ctx, code Code, msg string) error {
	return JSON(c, New(code, msg, nil))
}

// SuccessMessage writes a success envelope with a message
func SuccessMessage(c *fiber.Ctx, msg string) error {
	return Message(c, CodeSuccess, msg)
}

// FailMessage writes a fail envelope with a message
func FailMessage(c *fiber.Ctx, msg string) error {
	return Message(c, CodeFail, msg)
}

// NotFoundMessage writes a not_found envelope with a message
func NotFoundMessage(c *fiber.Ctx, msg string) error {
	return Message(c, CodeNotFound, msg)
}

// UnauthorizedMessage writes an unauthorized envelope with a message
func UnauthorizedMessage(c *fiber.Ctx, msg string) error {
	return Message(c, CodeUnauthorized, msg)
}

// ForbiddenMessage writes a forbidden envelope with a message
func ForbiddenMessage(c *fiber.Ctx, msg string) error {
	return Message(c, CodeForbidden, msg)
}
