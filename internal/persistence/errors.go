package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConstraintViolation is returned when a write breaks a storage
	// invariant, such as a duplicate (form, date of apply) template key.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
