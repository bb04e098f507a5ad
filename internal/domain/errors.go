package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the request carried no usable credential.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrPrincipalNotFound means the credential resolved to no known principal.
	// It maps to 401 like ErrUnauthenticated.
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrForbidden         = errors.New("insufficient role for this resource")
	// ErrSourceUnavailable marks a failed report snapshot fetch. Callers may retry.
	ErrSourceUnavailable = errors.New("report source unavailable")
)

// ValidationError describes a malformed input value.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// SourceError wraps the underlying repository failure so it can be logged
// while still matching ErrSourceUnavailable.
func SourceError(cause error) error {
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, cause)
}

func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
