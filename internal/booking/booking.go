// Package booking models confirmed appointments and the read-mostly queries
// that decide which slots a proposed mutation would impact.
package booking

import (
	"github.com/example/appointment-scheduler/internal/slot"
)

// AppointmentSlot ties an appointment to one slot and records how many places
// it consumes there. The relation is a back-reference: the slot itself never
// owns its appointments.
type AppointmentSlot struct {
	AppointmentID string
	SlotID        string
	NbPlaces      int
}

// Appointment is a confirmed or cancelled booking spanning one or more slots.
// The core never mutates appointments; their slot membership only drives
// capacity accounting, and IsCancelled filters which bookings count as
// validated for opening-impact and surbooking decisions.
type Appointment struct {
	ID          string
	FormID      string
	IsCancelled bool
	Slots       []AppointmentSlot
}

// ReferencedSlotIDs collects the ids of every slot referenced by the given
// appointments, cancelled or not.
func ReferencedSlotIDs(appointments []Appointment) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, appt := range appointments {
		for _, as := range appt.Slots {
			ids[as.SlotID] = struct{}{}
		}
	}
	return ids
}

// Validated returns the appointments that are not cancelled.
func Validated(appointments []Appointment) []Appointment {
	var out []Appointment
	for _, appt := range appointments {
		if !appt.IsCancelled {
			out = append(out, appt)
		}
	}
	return out
}

// Partition splits slots into those referenced by at least one appointment and
// those referenced by none. The partition drives branch selection in the
// mutation engine: bookingless slots are deleted and regenerated, booked slots
// are retained and updated field by field.
func Partition(slots []slot.Slot, appointments []Appointment) (withBookings, withoutBookings []slot.Slot) {
	referenced := ReferencedSlotIDs(appointments)
	for _, s := range slots {
		if _, ok := referenced[s.ID]; ok && s.ID != "" {
			withBookings = append(withBookings, s)
		} else {
			withoutBookings = append(withoutBookings, s)
		}
	}
	return withBookings, withoutBookings
}
