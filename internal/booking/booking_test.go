package booking

import (
	"testing"

	"github.com/example/appointment-scheduler/internal/slot"
)

func TestReferencedSlotIDs(t *testing.T) {
	t.Parallel()

	appointments := []Appointment{
		{ID: "a-1", Slots: []AppointmentSlot{{AppointmentID: "a-1", SlotID: "s-1", NbPlaces: 1}}},
		{ID: "a-2", IsCancelled: true, Slots: []AppointmentSlot{
			{AppointmentID: "a-2", SlotID: "s-1", NbPlaces: 1},
			{AppointmentID: "a-2", SlotID: "s-2", NbPlaces: 2},
		}},
	}

	ids := ReferencedSlotIDs(appointments)
	if len(ids) != 2 {
		t.Fatalf("expected 2 referenced slots, got %d", len(ids))
	}
	if _, ok := ids["s-2"]; !ok {
		t.Fatal("expected cancelled appointments to still reference their slots")
	}
}

func TestValidated(t *testing.T) {
	t.Parallel()

	appointments := []Appointment{
		{ID: "a-1"},
		{ID: "a-2", IsCancelled: true},
		{ID: "a-3"},
	}

	got := Validated(appointments)
	if len(got) != 2 {
		t.Fatalf("expected 2 validated appointments, got %d", len(got))
	}
	for _, appt := range got {
		if appt.IsCancelled {
			t.Fatalf("cancelled appointment %s slipped through", appt.ID)
		}
	}
}

func TestPartition(t *testing.T) {
	t.Parallel()

	slots := []slot.Slot{
		{ID: "s-1"},
		{ID: "s-2"},
		{ID: ""},
	}
	appointments := []Appointment{
		{ID: "a-1", Slots: []AppointmentSlot{{AppointmentID: "a-1", SlotID: "s-1", NbPlaces: 1}}},
	}

	withBookings, withoutBookings := Partition(slots, appointments)
	if len(withBookings) != 1 || withBookings[0].ID != "s-1" {
		t.Fatalf("expected only s-1 booked, got %#v", withBookings)
	}
	if len(withoutBookings) != 2 {
		t.Fatalf("expected s-2 and the anonymous slot bookingless, got %#v", withoutBookings)
	}
}
