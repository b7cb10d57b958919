// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Domain errors are expected outcomes, not faults. Controllers map them to
// HTTP status codes; anything else coming out of a service is an
// infrastructure failure and surfaces as a 500.
var (
	ErrInvalidRange = errors.New("booking range start must be before end")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidProof = errors.New("proof of payment is required")
	ErrTooLate      = errors.New("booking has already started")
)

// ConflictError reports a booking request that overlaps an existing pending
// or approved booking on the same facility.
type ConflictError struct {
	BookingID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time range conflicts with booking %s", e.BookingID)
}

// InvalidTransitionError reports an event that is not legal from the
// entity's current state.
type InvalidTransitionError struct {
	Current string
	Event   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %q is not allowed in state %q", e.Event, e.Current)
}
