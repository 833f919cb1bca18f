// Package common defines shared constants and sentinel errors used across
// the server layers of NoteKeeper. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrorStoreFailure = errors.New("db error")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorValidation         = errors.New("validation error")
	ErrorDuplicateEmail     = errors.New("email already registered")
	ErrorInvalidCredentials = errors.New("invalid email or password")

	// Auth errors. All of them are reported to clients as unauthorized.
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrInvalidToken)
	ErrUnknownUser  = errors.New("unknown user")

	// Upload policy errors.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = fmt.Errorf("file too large: %w", ErrUnsupportedMediaType)
)

// Validation returns an error matching ErrorValidation that carries a
// human-readable reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrorValidation, reason)
}

// IsUnauthorized reports whether err is one of the authentication failures.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrUnknownUser)
}
