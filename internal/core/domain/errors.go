package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these,
// so transport layers can map to a status code with errors.Is without
// knowing the specific failure.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrOperationFailed = errors.New("operation failed")
)

// Specific failures, each bound to its kind.
var (
	ErrInvalidCode    = fmt.Errorf("%w: invalid or expired verification code", ErrInvalidInput)
	ErrMalformedToken = fmt.Errorf("%w: malformed token claims", ErrInvalidInput)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenRevoked   = fmt.Errorf("%w: token revoked", ErrUnauthorized)
	ErrInvalidToken   = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrEmailTaken     = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
)

// OperationError wraps an unexpected collaborator failure into the
// ErrOperationFailed kind, preserving the cause for diagnostics. Known
// domain errors pass through unchanged.
func OperationError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrOperationFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}
