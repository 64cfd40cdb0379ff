// Package validation collects field-level failures so a caller can report
// every problem at once instead of stopping at the first.
package validation

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pyboot/internal/foundation/errors"
)

// Validator represents a validation function.
type Validator[T any] func(T) Result

// Result contains the result of a validation operation.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// FieldError represents a single validation failure.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

// Error implements the error interface.
func (fe FieldError) Error() string {
	if fe.Field != "" {
		return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fe.Message
}

// Valid creates a successful validation result.
func Valid() Result {
	return Result{Valid: true}
}

// Invalid creates a failed validation result with errors.
func Invalid(errs ...FieldError) Result {
	return Result{Errors: errs}
}

// Fail is shorthand for a result holding one field error.
func Fail(field, code, format string, args ...any) Result {
	return Invalid(FieldError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Combine merges two validation results.
func (r Result) Combine(other Result) Result {
	if r.Valid && other.Valid {
		return Valid()
	}

	all := make([]FieldError, 0, len(r.Errors)+len(other.Errors))
	all = append(all, r.Errors...)
	all = append(all, other.Errors...)
	return Invalid(all...)
}

// ToError converts an invalid result into a validation ClassifiedError.
func (r Result) ToError() error {
	if r.Valid {
		return nil
	}

	messages := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		messages = append(messages, err.Error())
	}

	return errors.ValidationError(strings.Join(messages, "; ")).
		WithContext("fields", len(r.Errors)).
		Build()
}

// Chain runs several validators and combines their results.
type Chain[T any] struct {
	validators []Validator[T]
}

// NewChain creates a new validator chain.
func NewChain[T any](validators ...Validator[T]) *Chain[T] {
	return &Chain[T]{validators: validators}
}

// Add appends a validator to the chain.
func (c *Chain[T]) Add(validator Validator[T]) *Chain[T] {
	c.validators = append(c.validators, validator)
	return c
}

// Validate runs every validator; it never stops early.
func (c *Chain[T]) Validate(value T) Result {
	result := Valid()
	for _, validator := range c.validators {
		result = result.Combine(validator(value))
	}
	return result
}
