package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
)

// V is the singleton validator instance
var V *validator.Validate

func init() {
	V = validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	V.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return toJSONFieldName(fld.Name)
		}
		return name
	})
}

// Validate validates a struct. Invalid input yields a validate_error failure
// with data {field: [messages]}.
func Validate(v any) error {
	err := V.Struct(v)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return apperrors.ValidateError(err.Error())
	}
	return FieldErrors(collect(errs))
}

// FieldErrors builds a validate_error failure from field messages. The
// message is the first error of the alphabetically first field.
func FieldErrors(fields map[string][]string) *apperrors.AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	message := "invalid request"
	data := make(map[string]any, len(fields))
	for i, name := range names {
		if i == 0 && len(fields[name]) > 0 {
			message = fmt.Sprintf("%s %s", name, fields[name][0])
		}
		data[name] = fields[name]
	}
	return apperrors.ValidateError(message).WithData(data)
}

func collect(errs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string)
	for _, e := range errs {
		name := e.Field()
		fields[name] = append(fields[name], getErrorMessage(e))
	}
	return fields
}

// toJSONFieldName converts struct field name to JSON field name (camelCase)
func toJSONFieldName(field string) string {
	if len(field) == 0 {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// getErrorMessage returns a human-readable error message for a validation error
func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "uuid":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", toJSONFieldName(e.Param()))
	case "excluded_with":
		return fmt.Sprintf("cannot be combined with %s", toJSONFieldName(e.Param()))
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}
