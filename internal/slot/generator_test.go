package slot

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/example/appointment-scheduler/internal/planning"
)

func weekOf(id string, dateOfApply time.Time, days ...planning.WorkingDay) planning.WeekDefinition {
	return planning.WeekDefinition{ID: id, FormID: "form-1", DateOfApply: dateOfApply, WorkingDays: days}
}

func mondayTemplates(capacity int) planning.WorkingDay {
	return planning.WorkingDay{
		ID:        "day-mon",
		DayOfWeek: time.Monday,
		TimeSlots: []planning.TimeSlot{
			{ID: "ts-1", StartingTime: planning.MustTimeOfDay(9, 0), EndingTime: planning.MustTimeOfDay(9, 30), MaxCapacity: capacity, IsOpen: true},
			{ID: "ts-2", StartingTime: planning.MustTimeOfDay(9, 30), EndingTime: planning.MustTimeOfDay(10, 0), MaxCapacity: capacity, IsOpen: false},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(nil)
	apply := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	from := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.January, 25, 0, 0, 0, 0, time.UTC)

	t.Run("emits open templates for matching weekdays only", func(t *testing.T) {
		t.Parallel()

		defs := []planning.WeekDefinition{weekOf("wd-1", apply, mondayTemplates(2))}
		got, err := gen.Generate("form-1", defs, nil, from, to)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		// Two Mondays in range, one open template each.
		if len(got) != 2 {
			t.Fatalf("expected 2 slots, got %d", len(got))
		}
		first := got[0]
		if first.ID != "" || first.IsSpecific {
			t.Fatalf("generated slots must be anonymous and template-coupled, got %#v", first)
		}
		if !first.StartsAt.Equal(from.Add(9 * time.Hour)) {
			t.Fatalf("expected 09:00 start, got %v", first.StartsAt)
		}
		if first.MaxCapacity != 2 || first.NbRemainingPlaces != 2 || first.NbPotentialRemainingPlaces != 2 || first.NbPlacesTaken != 0 {
			t.Fatalf("expected a fresh ledger, got %#v", first)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		defs := []planning.WeekDefinition{weekOf("wd-1", apply, mondayTemplates(2))}
		first, err := gen.Generate("form-1", defs, nil, from, to)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		second, err := gen.Generate("form-1", defs, nil, from, to)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatal("expected identical output for identical input")
		}
	})

	t.Run("switches definitions on the date of apply", func(t *testing.T) {
		t.Parallel()

		second := weekOf("wd-2", time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC), mondayTemplates(7))
		defs := []planning.WeekDefinition{weekOf("wd-1", apply, mondayTemplates(2)), second}

		got, err := gen.Generate("form-1", defs, nil, from, to)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 slots, got %d", len(got))
		}
		if got[0].MaxCapacity != 2 || got[1].MaxCapacity != 7 {
			t.Fatalf("expected the later Monday under the newer definition, got %#v", got)
		}
	})

	t.Run("suppresses closing days", func(t *testing.T) {
		t.Parallel()

		defs := []planning.WeekDefinition{weekOf("wd-1", apply, mondayTemplates(2))}
		closed := []planning.ClosingDay{{ID: "cd-1", FormID: "form-1", Date: from}}

		got, err := gen.Generate("form-1", defs, closed, from, to)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected only the open Monday, got %d slots", len(got))
		}
		if planning.SameDate(got[0].Date, from, time.UTC) {
			t.Fatal("expected no slot on the closed date")
		}
	})

	t.Run("ignores closing days of other forms", func(t *testing.T) {
		t.Parallel()

		defs := []planning.WeekDefinition{weekOf("wd-1", apply, mondayTemplates(2))}
		closed := []planning.ClosingDay{{ID: "cd-1", FormID: "form-2", Date: from}}

		got, err := gen.Generate("form-1", defs, closed, from, to)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected both Mondays, got %d slots", len(got))
		}
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		t.Parallel()

		if _, err := gen.Generate("form-1", nil, nil, to, from); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}
	})
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	gen := NewGenerator(nil)
	apply := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	from := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	defs := []planning.WeekDefinition{weekOf("wd-1", apply, mondayTemplates(2))}

	generated, err := gen.Generate("form-1", defs, nil, from, from)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	persisted := generated[0]
	persisted.ID = "slot-1"
	persisted.NbPlacesTaken = 1
	persisted.NbRemainingPlaces = 1
	persisted.NbPotentialRemainingPlaces = 1

	extra := Slot{
		ID:       "slot-2",
		FormID:   "form-1",
		Date:     from,
		StartsAt: from.Add(14 * time.Hour),
		EndsAt:   from.Add(14*time.Hour + 30*time.Minute),
		IsOpen:   true, IsSpecific: true,
		MaxCapacity: 1, NbRemainingPlaces: 1, NbPotentialRemainingPlaces: 1,
	}

	merged := Overlay(generated, []Slot{persisted, extra})
	if len(merged) != 2 {
		t.Fatalf("expected the replaced slot plus the appended specific one, got %d", len(merged))
	}
	if merged[0].ID != "slot-1" || merged[0].NbPlacesTaken != 1 {
		t.Fatalf("expected the persisted slot to win its position, got %#v", merged[0])
	}
	if merged[1].ID != "slot-2" {
		t.Fatalf("expected the off-template slot appended, got %#v", merged[1])
	}
}
