// Package apperr holds the error taxonomy shared by the invoicing services.
//
// ConfigurationError and ValidationError are expected conditions that need a
// merchant action before a retry can succeed. Both unwrap to a sentinel so
// callers can branch with errors.Is without caring about the concrete type.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is the sentinel behind every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation is the sentinel behind every ValidationError.
	ErrValidation = errors.New("validation error")
)

// ConfigurationError reports missing or incomplete shop configuration.
type ConfigurationError struct {
	Shop    string
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("shop %s is not configured", e.Shop)
	}
	return strings.Join(e.Missing, "; ")
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidationError reports malformed or insufficient input. Fields lists every
// problem found, not only the first one.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation builds a ValidationError from a list of problems.
// It returns nil when the list is empty so it can be used as a final check.
func NewValidation(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// IsExpected reports whether err is a configuration or validation problem,
// i.e. something the caller should surface verbatim instead of a 500.
func IsExpected(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation)
}
