package slotbox

import "errors"

var (
	// ErrNotFound is returned when an object or its metadata does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an object already exists at the requested path
	ErrConflict = errors.New("already exists")
	// ErrAuthMissing is returned when a request carries no recognized token parameter
	ErrAuthMissing = errors.New("no auth token provided")
	// ErrAuthInvalid is returned when the supplied token does not match
	ErrAuthInvalid = errors.New("invalid auth token")
	// ErrInvalidPath is returned when a client path sanitizes to nothing
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrSizeMismatch is returned when the received body length differs from the declared one
	ErrSizeMismatch = errors.New("content length mismatch")
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("upload too large")
	// ErrNoLedger is returned by ledger operations when no ledger is configured
	ErrNoLedger = errors.New("upload ledger not configured")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
)
