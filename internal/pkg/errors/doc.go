// Package errors provides the domain failure taxonomy for the LLMOps API.
//
// This package defines:
//   - AppError, a failure carrying a response code, a message and a data payload
//   - Constructors for the five fixed kinds
//   - Predicates for classifying an arbitrary error
//
// # Kinds
//
//   - Fail: operation failed, unspecified cause (fail)
//   - NotFound: referenced entity does not exist (not_found)
//   - Unauthorized: caller identity missing or invalid (unauthorized)
//   - Forbidden: caller identity valid but lacks permission (forbidden)
//   - ValidateError: input failed validation (validate_error)
//
// The set is closed. New kinds are added here, never at call sites.
//
// # Usage
//
//	return apperrors.NotFound("app not found")
//	return apperrors.ValidateError("bad field").WithDetail("field", "name")
//
// Any error that is not an AppError is an unclassified failure and is rendered
// generically by the fault translator.
//
// # Error Wrapping
//
// Classification goes through errors.As, so wrapping keeps the kind:
//
//	return fmt.Errorf("update app: %w", apperrors.NotFound("app not found"))
package errors
