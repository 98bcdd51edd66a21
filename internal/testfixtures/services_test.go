package testfixtures

import (
	"context"
	"testing"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/slot"
)

func TestServiceFactoryEndToEnd(t *testing.T) {
	t.Parallel()

	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	def := NewWeekDefinition(WithFormID("form-e2e"))
	if err := harness.Planning.SaveWeekDefinition(ctx, def); err != nil {
		t.Fatalf("SaveWeekDefinition failed: %v", err)
	}

	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("e2e")))
	slots := factory.NewSlotService(harness.Slots, harness.Planning, harness.Appointments, slot.NewGenerator(nil))

	from := def.DateOfApply
	to := from.AddDate(0, 0, 6)
	generated, err := slots.GenerateSlots(ctx, "form-e2e", from, to)
	if err != nil {
		t.Fatalf("GenerateSlots failed: %v", err)
	}
	// Five working days of six half-hour slots each.
	if len(generated) != 30 {
		t.Fatalf("expected 30 generated slots, got %d", len(generated))
	}

	// A direct edit persists the virtual slot and survives regeneration.
	first := generated[0]
	result, err := slots.MutateSlot(ctx, application.SlotMutation{
		Pending: &application.PendingSlot{
			FormID:       first.FormID,
			Date:         first.Date,
			StartingTime: first.StartingTime(),
			EndingTime:   first.EndingTime(),
			MaxCapacity:  first.MaxCapacity,
			IsOpen:       first.IsOpen,
		},
		NewEndingTime:  first.EndingTime(),
		NewMaxCapacity: 5,
		NewIsOpen:      first.IsOpen,
	})
	if err != nil {
		t.Fatalf("MutateSlot failed: %v", err)
	}
	if len(result.UpdatedSlotIDs) != 1 {
		t.Fatalf("expected one updated slot, got %#v", result.UpdatedSlotIDs)
	}

	regenerated, err := slots.GenerateSlots(ctx, "form-e2e", from, to)
	if err != nil {
		t.Fatalf("GenerateSlots after mutation failed: %v", err)
	}
	if regenerated[0].ID != result.UpdatedSlotIDs[0] {
		t.Fatalf("expected the persisted slot overlaid first, got %#v", regenerated[0])
	}
	if regenerated[0].MaxCapacity != 5 {
		t.Fatalf("expected capacity 5 after the edit, got %d", regenerated[0].MaxCapacity)
	}
	if !regenerated[0].IsSpecific {
		t.Fatal("expected the edited slot decoupled from its template")
	}
}

func TestServiceFactorySharesLocksAndCache(t *testing.T) {
	t.Parallel()

	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory()

	slotService := factory.NewSlotService(harness.Slots, harness.Planning, harness.Appointments, nil)
	planningService := factory.NewPlanningService(harness.Slots, harness.Planning, harness.Appointments)

	if slotService.Locks() != planningService.Locks() {
		t.Fatal("expected both services on one lock registry")
	}
}
