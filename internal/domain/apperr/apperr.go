// Package apperr holds the error kinds every aggregate wraps its sentinel errors with.
// The HTTP adapter maps kinds to status codes; callers match concrete sentinels with errors.Is.
package apperr

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)
