// Package slot defines the concrete bookable slot and its capacity ledger,
// plus the generator that materializes slots from weekly templates.
package slot

import (
	"time"

	"github.com/example/appointment-scheduler/internal/planning"
)

// Slot is a single bookable dated time interval. A slot starts life as a
// virtual projection of a template and is persisted only once it diverges:
// it carries a booking, a manual edit, or was touched by a mutation.
//
// IsSpecific marks a slot that has been manually decoupled from its template;
// later template edits no longer affect it.
type Slot struct {
	ID         string
	FormID     string
	Date       time.Time
	StartsAt   time.Time
	EndsAt     time.Time
	IsOpen     bool
	IsSpecific bool

	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	NbPlacesTaken              int
}

// StartingTime returns the wall-clock start of the slot.
func (s Slot) StartingTime() planning.TimeOfDay {
	return planning.TimeOfDay(s.StartsAt.Hour()*60 + s.StartsAt.Minute())
}

// EndingTime returns the wall-clock end of the slot.
func (s Slot) EndingTime() planning.TimeOfDay {
	return planning.TimeOfDay(s.EndsAt.Hour()*60 + s.EndsAt.Minute())
}

// IsSurbooked reports whether the booked count exceeds the current capacity.
// The state is legal: an administrative capacity reduction below the taken
// count succeeds and is surfaced, never silently corrected.
func (s Slot) IsSurbooked() bool {
	return s.NbPlacesTaken > s.MaxCapacity
}

// DecrementOnBooking consumes nbPlaces from the ledger when a booking is
// confirmed on the slot.
func (s *Slot) DecrementOnBooking(nbPlaces int) {
	s.NbPlacesTaken += nbPlaces
	s.NbRemainingPlaces -= nbPlaces
	s.NbPotentialRemainingPlaces -= nbPlaces
}

// IncrementOnCancellation releases nbPlaces back to the ledger when a booking
// on the slot is cancelled.
func (s *Slot) IncrementOnCancellation(nbPlaces int) {
	s.NbPlacesTaken -= nbPlaces
	if s.NbPlacesTaken < 0 {
		s.NbPlacesTaken = 0
	}
	s.NbRemainingPlaces += nbPlaces
	s.NbPotentialRemainingPlaces += nbPlaces
}

// RecomputeFromCapacityChange applies a new maximum capacity and recomputes
// the remaining counters. NbPlacesTaken is never altered by a capacity change;
// when the new maximum falls below the taken count the raw negative remainder
// is kept as the surbooking signal, and true is returned.
func (s *Slot) RecomputeFromCapacityChange(newMax int) bool {
	s.MaxCapacity = newMax
	if s.NbPlacesTaken == 0 {
		s.NbRemainingPlaces = newMax
		s.NbPotentialRemainingPlaces = newMax
		return false
	}
	s.NbRemainingPlaces = newMax - s.NbPlacesTaken
	s.NbPotentialRemainingPlaces = newMax - s.NbPlacesTaken
	return s.NbPlacesTaken > newMax
}
