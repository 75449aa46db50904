package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services wraps exactly one of these,
// and the HTTP layer maps the kind to a status code.
var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrInternal        = errors.New("internal error")
)

// kindError carries a human-readable message while matching its kind via errors.Is.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKind(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	ErrEmailTaken         = newKind(ErrConflict, "email is already registered")
	ErrInvalidCredentials = newKind(ErrUnauthorized, "invalid email or password")
	ErrWrongPassword      = newKind(ErrUnauthorized, "current password is incorrect")

	ErrUserNotFound      = newKind(ErrNotFound, "user not found")
	ErrTravelLogNotFound = newKind(ErrNotFound, "travel log not found")
	ErrImageNotFound     = newKind(ErrNotFound, "image not found")
	ErrSessionNotFound   = newKind(ErrNotFound, "session not found")
	ErrFileNotFound      = newKind(ErrNotFound, "file not found")

	ErrTokenNotPersisted = newKind(ErrInternal, "failed to persist session token")

	ErrInvalidFileName = newKind(ErrValidation, "invalid file name")
	ErrNotAnImage      = newKind(ErrValidation, "uploaded file must be an image")
)

// Auth gate denials.
var (
	ErrTokenMissing     = newKind(ErrUnauthenticated, "authentication token not found")
	ErrTokenInvalid     = newKind(ErrUnauthenticated, "invalid or expired token")
	ErrTokenPayload     = newKind(ErrUnauthenticated, "invalid token payload")
	ErrSessionExpired   = newKind(ErrUnauthenticated, "session not found or logged out")
	ErrUserGone         = newKind(ErrUnauthenticated, "user no longer exists")
	ErrNotAuthenticated = newKind(ErrUnauthenticated, "authentication required")
)

// Invalid returns a validation error with the given message.
func Invalid(format string, args ...any) error {
	return newKind(ErrValidation, fmt.Sprintf(format, args...))
}
