package application

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced slot, template or week
	// definition has no record.
	ErrNotFound = errors.New("application: not found")
	// ErrLastWeekDefinition is returned when removing a week definition would
	// leave the form without any template.
	ErrLastWeekDefinition = errors.New("application: cannot remove the last week definition of a form")
)

// ValidationError captures field level validation issues that callers can
// surface to users. A validation error is local to one mutation; no state has
// changed when it is returned.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError is returned when appointments exist on the impacted slots and
// the requested change cannot apply without losing them. The mutation is fully
// aborted: no slot field has changed and every lock has been released when the
// error reaches the caller.
type ConflictError struct {
	ImpactedAppointments int
	SlotIDs              []string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("appointments exist on the impacted slots (%d impacted)", c.ImpactedAppointments)
}
