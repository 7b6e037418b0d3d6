package repository

import "errors"

var (
	// ErrNotFound is returned when no record matches. Identifiers that are malformed for the
	// active store also yield ErrNotFound, since they cannot resolve to anything.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the unique email constraint rejects an insert.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStoreUnavailable is returned when the store client could not be created at startup.
	ErrStoreUnavailable = errors.New("document store unavailable")
)
