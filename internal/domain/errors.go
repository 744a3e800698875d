package domain

import "errors"

// Sentinel errors matched with errors.Is across services and stores; the
// router maps them to HTTP statuses.
var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("not signed in")
	ErrForbidden    = errors.New("access denied")
	ErrConflict     = errors.New("record already exists")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)
