package application

import (
	"context"
	"time"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/planning"
	"github.com/example/appointment-scheduler/internal/slot"
)

// farFuture bounds open-ended applicability windows. Timestamps are stored as
// strings, so an arbitrary large bound is safe where a time.Time maximum would
// not round-trip.
var farFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// impactedSet is the outcome of the impact analysis for a proposed mutation:
// the persisted slots the change touches and the appointments referencing
// them. Virtual slots never appear here; a slot only persists once it carries
// a booking or a manual edit, so bookings can only reference persisted ids.
type impactedSet struct {
	slots        []slot.Slot
	appointments []booking.Appointment
}

func (s impactedSet) hasSlots() bool        { return len(s.slots) > 0 }
func (s impactedSet) hasAppointments() bool { return len(s.appointments) > 0 }

func (s impactedSet) slotIDs() []string {
	ids := make([]string, 0, len(s.slots))
	for _, sl := range s.slots {
		ids = append(ids, sl.ID)
	}
	return ids
}

// findImpacted loads the persisted slots of formID overlapping [from, to] and
// the appointments referencing any of them. The computation is read-only and
// runs before any slot lock is taken. An empty range yields empty sets: the
// caller may overwrite the template directly.
func findImpacted(ctx context.Context, slots persistence.SlotRepository, appointments persistence.AppointmentRepository, formID string, from, to time.Time) (impactedSet, error) {
	if !to.After(from) && !to.Equal(from) {
		return impactedSet{}, nil
	}
	impacted, err := slots.ListSlotsByFormAndRange(ctx, formID, from, to)
	if err != nil {
		return impactedSet{}, err
	}
	if len(impacted) == 0 {
		return impactedSet{}, nil
	}
	ids := make([]string, 0, len(impacted))
	for _, s := range impacted {
		ids = append(ids, s.ID)
	}
	appts, err := appointments.ListAppointmentsBySlotIDs(ctx, ids)
	if err != nil {
		return impactedSet{}, err
	}
	return impactedSet{slots: impacted, appointments: appts}, nil
}

// filterByTemplate narrows an impacted set to the slots still coupled to the
// given template: matching weekday and, unless shift is set, exactly the
// template's starting time. With shift the window widens to every later slot
// of the same day, so start-time cascades are accounted for.
func filterByTemplate(set impactedSet, day time.Weekday, startingTime planning.TimeOfDay, shift bool) impactedSet {
	var kept []slot.Slot
	for _, s := range set.slots {
		if s.Date.Weekday() != day || s.IsSpecific {
			continue
		}
		if shift {
			if s.StartingTime().Before(startingTime) {
				continue
			}
		} else if s.StartingTime() != startingTime {
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return impactedSet{}
	}
	var appts []booking.Appointment
	for _, appt := range set.appointments {
		for _, as := range appt.Slots {
			if containsSlot(kept, as.SlotID) {
				appts = append(appts, appt)
				break
			}
		}
	}
	return impactedSet{slots: kept, appointments: appts}
}

func containsSlot(slots []slot.Slot, id string) bool {
	for _, s := range slots {
		if s.ID == id {
			return true
		}
	}
	return false
}

// checkEndingTime validates a proposed ending time against the slot or
// template start and the maximum permitted by the owning working day (or the
// whole week when no working day matches the weekday).
func checkEndingTime(newEnd, start, maxEnd planning.TimeOfDay) *ValidationError {
	vErr := &ValidationError{}
	if !newEnd.After(start) {
		vErr.add("endingTime", "ending time must be after starting time")
	}
	if newEnd.After(maxEnd) {
		vErr.add("endingTime", "slot cannot end after the day or form maximum")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

// applicabilityWindow returns the date range during which the week definition
// effective at dateOfApply governs slot generation: from its effective date to
// just before the next definition's effective date, or unbounded when none
// follows. The upper bound is exclusive so a slot starting exactly when the
// next definition applies belongs to that definition's window only; range
// queries treat both bounds inclusively and timestamps carry second precision.
func applicabilityWindow(definitions []planning.WeekDefinition, dateOfApply time.Time) (time.Time, time.Time) {
	next, ok := planning.NextAfter(definitions, dateOfApply)
	if !ok {
		return dateOfApply, farFuture
	}
	return dateOfApply, next.DateOfApply.Add(-time.Second)
}
