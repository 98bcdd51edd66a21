package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/locking"
	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/planning"
	"github.com/example/appointment-scheduler/internal/slot"
)

// SlotService owns the concrete-slot side of the mutation engine: calendar
// reads (template expansion overlaid with persisted slots) and single-slot
// edits serialized through the per-slot lock registry.
type SlotService struct {
	slots        persistence.SlotRepository
	planning     persistence.PlanningRepository
	appointments persistence.AppointmentRepository
	locks        *locking.Registry
	cache        *SlotCache
	generator    *slot.Generator
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewSlotService wires dependencies for slot operations.
func NewSlotService(slots persistence.SlotRepository, planningRepo persistence.PlanningRepository, appointments persistence.AppointmentRepository, locks *locking.Registry, cache *SlotCache, generator *slot.Generator, idGenerator func() string, now func() time.Time) *SlotService {
	return NewSlotServiceWithLogger(slots, planningRepo, appointments, locks, cache, generator, idGenerator, now, nil)
}

// NewSlotServiceWithLogger wires dependencies for slot operations with an
// explicit base logger. The cache and lock registry should be shared with the
// PlanningService so template mutations invalidate calendars read here.
func NewSlotServiceWithLogger(slots persistence.SlotRepository, planningRepo persistence.PlanningRepository, appointments persistence.AppointmentRepository, locks *locking.Registry, cache *SlotCache, generator *slot.Generator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SlotService {
	if locks == nil {
		locks = locking.NewRegistry()
	}
	if cache == nil {
		cache = NewSlotCache(0)
	}
	if generator == nil {
		generator = slot.NewGenerator(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SlotService{
		slots:        slots,
		planning:     planningRepo,
		appointments: appointments,
		locks:        locks,
		cache:        cache,
		generator:    generator,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// Locks exposes the per-slot lock registry so that sibling services mutate
// slots under the same handles.
func (s *SlotService) Locks() *locking.Registry { return s.locks }

// invalidateForm drops the cached calendars of a form after any mutation.
func (s *SlotService) invalidateForm(formID string) {
	s.cache.InvalidateForm(formID)
}

// GenerateSlots returns the bookable slots of a form for a date range:
// deterministic template expansion with every persisted (booked, edited or
// specific) slot overlaid on its generated counterpart. Nothing is persisted;
// two consecutive calls without an intervening mutation yield identical
// results.
func (s *SlotService) GenerateSlots(ctx context.Context, formID string, from, to time.Time) ([]slot.Slot, error) {
	if s == nil {
		return nil, fmt.Errorf("SlotService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "slot", "GenerateSlots", "form_id", formID)

	if cached, ok := s.cache.Get(formID, from, to); ok {
		return cached, nil
	}

	definitions, err := s.planning.ListWeekDefinitions(ctx, formID)
	if err != nil {
		return nil, err
	}
	closingDays, err := s.planning.ListClosingDays(ctx, formID, from, to)
	if err != nil {
		return nil, err
	}
	generated, err := s.generator.Generate(formID, definitions, closingDays, from, to)
	if err != nil {
		return nil, err
	}
	persisted, err := s.slots.ListSlotsByFormAndRange(ctx, formID, from, to)
	if err != nil {
		return nil, err
	}

	merged := slot.Overlay(generated, persisted)
	sort.Slice(merged, func(i, j int) bool { return merged[i].StartsAt.Before(merged[j].StartsAt) })

	s.cache.Store(formID, from, to, merged)
	logger.Debug("generated slots", "count", len(merged))
	return merged, nil
}

// MutateSlot applies a direct edit to one concrete slot: ending time, maximum
// capacity and opening, optionally shifting later same-day slots into the
// impact window. The whole read-validate-write sequence runs under the slot's
// exclusive lock.
//
// An ending-time change is rejected with a ConflictError while any
// appointment sits on the impacted window. A capacity decrease below the
// taken count succeeds and raises the surbooking flag instead; the taken
// count is never altered. An edit that changes no field is a no-op: nothing
// is persisted and Updated stays false.
func (s *SlotService) MutateSlot(ctx context.Context, mutation SlotMutation) (MutationResult, error) {
	if s == nil {
		return MutationResult{}, fmt.Errorf("SlotService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "slot", "MutateSlot", "slot_id", mutation.SlotID)

	slotID := mutation.SlotID
	pending := slotID == ""
	if pending {
		if mutation.Pending == nil {
			vErr := &ValidationError{}
			vErr.add("slot", "either a slot id or a pending slot is required")
			return MutationResult{}, vErr
		}
		slotID = s.idGenerator()
	}

	release := s.locks.Acquire(slotID)
	defer release()

	current, err := s.loadCurrent(ctx, slotID, pending, mutation.Pending)
	if err != nil {
		return MutationResult{}, err
	}

	endingChanged := mutation.NewEndingTime != current.EndingTime()
	capacityChanged := mutation.NewMaxCapacity != current.MaxCapacity
	openingChanged := mutation.NewIsOpen != current.IsOpen
	if !endingChanged && !capacityChanged && !openingChanged {
		return MutationResult{}, nil
	}

	newEnd := mutation.NewEndingTime.At(current.Date, s.generator.Location())
	if endingChanged {
		maxEnd, err := s.maxEndingTimeFor(ctx, current)
		if err != nil {
			return MutationResult{}, err
		}
		if vErr := checkEndingTime(mutation.NewEndingTime, current.StartingTime(), maxEnd); vErr != nil {
			return MutationResult{}, vErr
		}
		if err := s.checkNoAppointmentsOnImpactedWindow(ctx, current, newEnd, mutation.Shift); err != nil {
			return MutationResult{}, err
		}
	}

	result := MutationResult{Updated: true}
	updated := current
	if openingChanged {
		updated.IsOpen = mutation.NewIsOpen
	}
	if endingChanged {
		updated.EndsAt = newEnd
	}
	if capacityChanged {
		if updated.RecomputeFromCapacityChange(mutation.NewMaxCapacity) {
			result.Surbooking = true
		}
	}
	updated.IsSpecific = true

	if err := s.slots.SaveSlot(ctx, updated); err != nil {
		return MutationResult{}, err
	}
	result.UpdatedSlotIDs = []string{updated.ID}

	// A date cannot be both closed for the day and individually edited; the
	// closing day goes once the slot write has succeeded.
	if closingDay, err := s.planning.GetClosingDay(ctx, current.FormID, current.Date); err == nil {
		if err := s.planning.DeleteClosingDay(ctx, closingDay.ID); err != nil {
			return MutationResult{}, err
		}
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return MutationResult{}, err
	}

	if openingChanged {
		appts, err := s.appointments.ListAppointmentsBySlotIDs(ctx, []string{updated.ID})
		if err != nil {
			return MutationResult{}, err
		}
		if len(booking.Validated(appts)) > 0 {
			result.ValidatedImpacted = true
		}
	}

	s.invalidateForm(updated.FormID)
	logger.Info("slot updated",
		"form_id", updated.FormID,
		"surbooking", result.Surbooking,
		"validated_impacted", result.ValidatedImpacted)
	return result, nil
}

// loadCurrent resolves the slot under mutation: a fresh read for persisted
// slots, or the staged pending value promoted to a full slot for unpersisted
// ones.
func (s *SlotService) loadCurrent(ctx context.Context, slotID string, pending bool, staged *PendingSlot) (slot.Slot, error) {
	if !pending {
		current, err := s.slots.GetSlot(ctx, slotID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return slot.Slot{}, ErrNotFound
			}
			return slot.Slot{}, err
		}
		return current, nil
	}
	loc := s.generator.Location()
	date := planning.DateOf(staged.Date, loc)
	return slot.Slot{
		ID:                         slotID,
		FormID:                     staged.FormID,
		Date:                       date,
		StartsAt:                   staged.StartingTime.At(date, loc),
		EndsAt:                     staged.EndingTime.At(date, loc),
		IsOpen:                     staged.IsOpen,
		MaxCapacity:                staged.MaxCapacity,
		NbRemainingPlaces:          staged.MaxCapacity,
		NbPotentialRemainingPlaces: staged.MaxCapacity,
	}, nil
}

// maxEndingTimeFor resolves the latest permitted ending time for a slot: the
// bound of the working day matching its weekday, or the week-wide maximum
// when the active week definition has no such day.
func (s *SlotService) maxEndingTimeFor(ctx context.Context, current slot.Slot) (planning.TimeOfDay, error) {
	definitions, err := s.planning.ListWeekDefinitions(ctx, current.FormID)
	if err != nil {
		return 0, err
	}
	def, ok := planning.ClosestTo(definitions, current.Date)
	if !ok {
		return 0, ErrNotFound
	}
	if day, ok := def.WorkingDayFor(current.Date.Weekday()); ok {
		return day.MaxEndingTime(), nil
	}
	return def.MaxEndingTime(), nil
}

// checkNoAppointmentsOnImpactedWindow rejects an ending-time change while any
// appointment, cancelled or not, references a slot between the slot's start
// and its proposed new end. With shift the window extends to the end of the
// slot's calendar day.
func (s *SlotService) checkNoAppointmentsOnImpactedWindow(ctx context.Context, current slot.Slot, newEnd time.Time, shift bool) error {
	windowEnd := newEnd
	if shift {
		windowEnd = current.Date.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	set, err := findImpacted(ctx, s.slots, s.appointments, current.FormID, current.StartsAt, windowEnd)
	if err != nil {
		return err
	}
	if set.hasAppointments() {
		return &ConflictError{
			ImpactedAppointments: len(set.appointments),
			SlotIDs:              set.slotIDs(),
		}
	}
	return nil
}
