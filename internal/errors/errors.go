package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront gateway
var (
	// Authentication errors
	ErrNotAuthenticated    = errors.New("not_authenticated")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnknownProvider     = errors.New("unknown provider")
	ErrInvalidState        = errors.New("invalid state")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrRefreshFailed       = errors.New("token refresh failed")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Backend errors
	ErrServer   = errors.New("server error")
	ErrNotFound = errors.New("not found")

	// Input errors
	ErrValidation = errors.New("validation error")

	// General errors
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need only one errors import
func New(text string) error {
	return errors.New(text)
}
