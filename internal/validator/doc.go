// Package validator provides struct validation for request bodies.
//
// It wraps go-playground/validator and reports failures as a validate_error
// domain failure whose data maps each JSON field name to its messages:
//
//	if err := validator.Validate(req); err != nil {
//	    return err // rendered by the fault translator
//	}
package validator
