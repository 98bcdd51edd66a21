package slot

import (
	"testing"
	"time"
)

func newOpenSlot(capacity int) Slot {
	date := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	return Slot{
		ID:                         "slot-1",
		FormID:                     "form-1",
		Date:                       date,
		StartsAt:                   date.Add(9 * time.Hour),
		EndsAt:                     date.Add(9*time.Hour + 30*time.Minute),
		IsOpen:                     true,
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
	}
}

func TestSlot_Ledger(t *testing.T) {
	t.Parallel()

	s := newOpenSlot(3)

	s.DecrementOnBooking(2)
	if s.NbPlacesTaken != 2 || s.NbRemainingPlaces != 1 || s.NbPotentialRemainingPlaces != 1 {
		t.Fatalf("after booking: %#v", s)
	}
	if s.IsSurbooked() {
		t.Fatal("a full booking within capacity is not surbooked")
	}

	s.IncrementOnCancellation(1)
	if s.NbPlacesTaken != 1 || s.NbRemainingPlaces != 2 || s.NbPotentialRemainingPlaces != 2 {
		t.Fatalf("after cancellation: %#v", s)
	}

	// Cancelling more than was taken clamps the taken count at zero.
	s.IncrementOnCancellation(5)
	if s.NbPlacesTaken != 0 {
		t.Fatalf("expected taken count clamped at zero, got %d", s.NbPlacesTaken)
	}
}

func TestSlot_RecomputeFromCapacityChange(t *testing.T) {
	t.Parallel()

	t.Run("resets counters when nothing is booked", func(t *testing.T) {
		t.Parallel()

		s := newOpenSlot(2)
		if surbooked := s.RecomputeFromCapacityChange(5); surbooked {
			t.Fatal("expected no surbooking on a bookingless slot")
		}
		if s.MaxCapacity != 5 || s.NbRemainingPlaces != 5 || s.NbPotentialRemainingPlaces != 5 {
			t.Fatalf("after recompute: %#v", s)
		}
	})

	t.Run("keeps the taken count through a decrease", func(t *testing.T) {
		t.Parallel()

		s := newOpenSlot(3)
		s.DecrementOnBooking(2)
		if surbooked := s.RecomputeFromCapacityChange(2); surbooked {
			t.Fatal("capacity equal to the taken count is not surbooked")
		}
		if s.NbPlacesTaken != 2 || s.NbRemainingPlaces != 0 {
			t.Fatalf("after recompute: %#v", s)
		}
	})

	t.Run("signals surbooking below the taken count", func(t *testing.T) {
		t.Parallel()

		s := newOpenSlot(3)
		s.DecrementOnBooking(2)
		if surbooked := s.RecomputeFromCapacityChange(1); !surbooked {
			t.Fatal("expected the surbooking signal")
		}
		if s.NbPlacesTaken != 2 || s.NbRemainingPlaces != -1 || s.NbPotentialRemainingPlaces != -1 {
			t.Fatalf("expected the raw negative remainder kept, got %#v", s)
		}
		if !s.IsSurbooked() {
			t.Fatal("expected IsSurbooked after the decrease")
		}
	})
}

func TestSlot_WallClockTimes(t *testing.T) {
	t.Parallel()

	s := newOpenSlot(1)
	if s.StartingTime().String() != "09:00" || s.EndingTime().String() != "09:30" {
		t.Fatalf("unexpected wall-clock times: %v %v", s.StartingTime(), s.EndingTime())
	}
}
