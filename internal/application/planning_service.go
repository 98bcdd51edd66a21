package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/locking"
	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/planning"
)

// PlanningService owns template-level and week-level mutations: editing a
// recurring time slot, swapping the weekly parameters of a form, and removing
// a week definition. Impacted concrete slots are updated under the same
// per-slot locks the SlotService uses, one at a time, so a batch never holds
// more than one slot lock and cross-slot batches are not atomic.
type PlanningService struct {
	slots        persistence.SlotRepository
	planning     persistence.PlanningRepository
	appointments persistence.AppointmentRepository
	locks        *locking.Registry
	cache        *SlotCache
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewPlanningService wires dependencies for template operations.
func NewPlanningService(slots persistence.SlotRepository, planningRepo persistence.PlanningRepository, appointments persistence.AppointmentRepository, locks *locking.Registry, cache *SlotCache, idGenerator func() string, now func() time.Time) *PlanningService {
	return NewPlanningServiceWithLogger(slots, planningRepo, appointments, locks, cache, idGenerator, now, nil)
}

// NewPlanningServiceWithLogger wires dependencies for template operations with
// an explicit base logger. The cache and lock registry should be shared with
// the SlotService.
func NewPlanningServiceWithLogger(slots persistence.SlotRepository, planningRepo persistence.PlanningRepository, appointments persistence.AppointmentRepository, locks *locking.Registry, cache *SlotCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PlanningService {
	if locks == nil {
		locks = locking.NewRegistry()
	}
	if cache == nil {
		cache = NewSlotCache(0)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PlanningService{
		slots:        slots,
		planning:     planningRepo,
		appointments: appointments,
		locks:        locks,
		cache:        cache,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// Locks exposes the per-slot lock registry so that sibling services mutate
// slots under the same handles.
func (p *PlanningService) Locks() *locking.Registry { return p.locks }

// ClosestWeekDefinition returns the week definition of the form whose date of
// apply is the latest one on or before date.
func (p *PlanningService) ClosestWeekDefinition(ctx context.Context, formID string, date time.Time) (planning.WeekDefinition, error) {
	if p == nil {
		return planning.WeekDefinition{}, fmt.Errorf("PlanningService is nil")
	}
	definitions, err := p.planning.ListWeekDefinitions(ctx, formID)
	if err != nil {
		return planning.WeekDefinition{}, err
	}
	def, ok := planning.ClosestTo(definitions, date)
	if !ok {
		return planning.WeekDefinition{}, ErrNotFound
	}
	return def, nil
}

// MutateTimeSlot applies a template-level edit: the recurring time slot's
// ending time, capacity or opening changes, propagating to every future
// concrete slot still coupled to the template. Bookingless impacted slots are
// deleted and regenerate from the new version; booked slots are retained and
// updated field by field under their own lock.
//
// An ending-time change is rejected outright while any impacted slot carries
// an appointment. A capacity decrease below a slot's taken count applies and
// raises the surbooking flag for that slot.
func (p *PlanningService) MutateTimeSlot(ctx context.Context, mutation TemplateMutation) (MutationResult, error) {
	if p == nil {
		return MutationResult{}, fmt.Errorf("PlanningService is nil")
	}
	logger := serviceLogger(ctx, p.logger, "planning", "MutateTimeSlot",
		"form_id", mutation.FormID, "time_slot_id", mutation.TimeSlotID)

	def, err := p.planning.GetWeekDefinition(ctx, mutation.WeekDefinitionID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return MutationResult{}, ErrNotFound
		}
		return MutationResult{}, err
	}
	day, template, ok := def.TimeSlotByID(mutation.TimeSlotID)
	if !ok {
		return MutationResult{}, ErrNotFound
	}

	endingChanged := mutation.NewEndingTime != template.EndingTime
	capacityChanged := mutation.NewMaxCapacity != template.MaxCapacity
	openingChanged := mutation.NewIsOpen != template.IsOpen

	if endingChanged {
		if vErr := checkEndingTime(mutation.NewEndingTime, template.StartingTime, day.MaxEndingTime()); vErr != nil {
			return MutationResult{}, vErr
		}
	}

	definitions, err := p.planning.ListWeekDefinitions(ctx, def.FormID)
	if err != nil {
		return MutationResult{}, err
	}
	windowStart, windowEnd := applicabilityWindow(definitions, def.DateOfApply)
	set, err := findImpacted(ctx, p.slots, p.appointments, def.FormID, windowStart, windowEnd)
	if err != nil {
		return MutationResult{}, err
	}
	set = filterByTemplate(set, day.DayOfWeek, template.StartingTime, mutation.Shift)

	result := MutationResult{Updated: true}
	if set.hasSlots() {
		if set.hasAppointments() {
			if endingChanged {
				return MutationResult{}, &ConflictError{
					ImpactedAppointments: len(set.appointments),
					SlotIDs:              set.slotIDs(),
				}
			}
			if openingChanged && len(booking.Validated(set.appointments)) > 0 {
				result.ValidatedImpacted = true
			}
			applied, err := p.applyToImpacted(ctx, set, capacityChanged, mutation.NewMaxCapacity, openingChanged, mutation.NewIsOpen)
			if err != nil {
				return MutationResult{}, err
			}
			result.Surbooking = applied.Surbooking
			result.UpdatedSlotIDs = applied.UpdatedSlotIDs
			result.DeletedSlotIDs = applied.DeletedSlotIDs
		} else {
			ids := set.slotIDs()
			if err := p.slots.DeleteSlots(ctx, ids); err != nil {
				return MutationResult{}, err
			}
			result.DeletedSlotIDs = ids
		}
	}

	updatedTemplate := template
	updatedTemplate.EndingTime = mutation.NewEndingTime
	updatedTemplate.MaxCapacity = mutation.NewMaxCapacity
	updatedTemplate.IsOpen = mutation.NewIsOpen
	if err := p.planning.SaveWeekDefinition(ctx, def.WithTimeSlot(updatedTemplate)); err != nil {
		return MutationResult{}, err
	}

	p.cache.InvalidateForm(def.FormID)
	logger.Info("time slot template updated",
		"updated_slots", len(result.UpdatedSlotIDs),
		"deleted_slots", len(result.DeletedSlotIDs),
		"surbooking", result.Surbooking)
	return result, nil
}

// RemoveWeekDefinition deletes a week definition and its paired reservation
// rule. The form must keep at least one other definition, and no appointment
// may fall inside the removed definition's applicability window. Persisted
// template-derived slots of the window are deleted so the surviving
// definition regenerates them.
func (p *PlanningService) RemoveWeekDefinition(ctx context.Context, formID, weekDefinitionID string) (MutationResult, error) {
	if p == nil {
		return MutationResult{}, fmt.Errorf("PlanningService is nil")
	}
	logger := serviceLogger(ctx, p.logger, "planning", "RemoveWeekDefinition",
		"form_id", formID, "week_definition_id", weekDefinitionID)

	definitions, err := p.planning.ListWeekDefinitions(ctx, formID)
	if err != nil {
		return MutationResult{}, err
	}
	var target planning.WeekDefinition
	found := false
	others := 0
	for _, def := range definitions {
		if def.ID == weekDefinitionID {
			target = def
			found = true
		} else {
			others++
		}
	}
	if !found {
		return MutationResult{}, ErrNotFound
	}
	if others == 0 {
		return MutationResult{}, ErrLastWeekDefinition
	}

	windowStart, windowEnd := applicabilityWindow(definitions, target.DateOfApply)
	set, err := findImpacted(ctx, p.slots, p.appointments, formID, windowStart, windowEnd)
	if err != nil {
		return MutationResult{}, err
	}
	if set.hasAppointments() {
		return MutationResult{}, &ConflictError{
			ImpactedAppointments: len(set.appointments),
			SlotIDs:              set.slotIDs(),
		}
	}

	result := MutationResult{Updated: true}
	for _, impacted := range set.slots {
		if impacted.IsSpecific {
			continue
		}
		result.DeletedSlotIDs = append(result.DeletedSlotIDs, impacted.ID)
	}
	if len(result.DeletedSlotIDs) > 0 {
		if err := p.slots.DeleteSlots(ctx, result.DeletedSlotIDs); err != nil {
			return MutationResult{}, err
		}
	}

	if rule, err := p.planning.GetReservationRule(ctx, formID, target.DateOfApply); err == nil {
		if err := p.planning.DeleteReservationRule(ctx, rule.ID); err != nil {
			return MutationResult{}, err
		}
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return MutationResult{}, err
	}
	if err := p.planning.DeleteWeekDefinition(ctx, target.ID); err != nil {
		return MutationResult{}, err
	}

	p.cache.InvalidateForm(formID)
	logger.Info("week definition removed", "deleted_slots", len(result.DeletedSlotIDs))
	return result, nil
}

// UpdateAdvancedParameters swaps the weekly template of a form from a given
// effective date: a new week definition and reservation rule are built from
// the uniform shape and replace whatever governed that window. Booked slots
// must survive under the new shape or the whole mutation is rejected.
func (p *PlanningService) UpdateAdvancedParameters(ctx context.Context, params AdvancedParameters) (MutationResult, error) {
	if p == nil {
		return MutationResult{}, fmt.Errorf("PlanningService is nil")
	}
	logger := serviceLogger(ctx, p.logger, "planning", "UpdateAdvancedParameters", "form_id", params.FormID)

	if vErr := validateAdvancedParameters(params); vErr != nil {
		return MutationResult{}, vErr
	}

	newDef, newRule := planning.BuildWeek(params.FormID, params.DateOfApply, params.Shape, p.idGenerator)

	definitions, err := p.planning.ListWeekDefinitions(ctx, params.FormID)
	if err != nil {
		return MutationResult{}, err
	}
	windowStart, windowEnd := applicabilityWindow(definitions, params.DateOfApply)
	set, err := findImpacted(ctx, p.slots, p.appointments, params.FormID, windowStart, windowEnd)
	if err != nil {
		return MutationResult{}, err
	}

	result := MutationResult{Updated: true}
	if set.hasSlots() {
		if set.hasAppointments() {
			withBookings, _ := booking.Partition(set.slots, set.appointments)
			for _, booked := range withBookings {
				if !newDef.Covers(booked.Date.Weekday(), booked.StartingTime(), booked.EndingTime()) {
					return MutationResult{}, &ConflictError{
						ImpactedAppointments: len(set.appointments),
						SlotIDs:              set.slotIDs(),
					}
				}
			}
			applied, err := p.applyToImpacted(ctx, set, true, params.Shape.MaxCapacity, false, false)
			if err != nil {
				return MutationResult{}, err
			}
			result.Surbooking = applied.Surbooking
			result.UpdatedSlotIDs = applied.UpdatedSlotIDs
			result.DeletedSlotIDs = applied.DeletedSlotIDs
		} else {
			ids := set.slotIDs()
			if err := p.slots.DeleteSlots(ctx, ids); err != nil {
				return MutationResult{}, err
			}
			result.DeletedSlotIDs = ids
		}
	}

	if err := p.planning.SaveWeekDefinition(ctx, newDef); err != nil {
		return MutationResult{}, err
	}
	if err := p.planning.SaveReservationRule(ctx, newRule); err != nil {
		return MutationResult{}, err
	}

	p.cache.InvalidateForm(params.FormID)
	logger.Info("advanced parameters updated",
		"date_of_apply", params.DateOfApply,
		"updated_slots", len(result.UpdatedSlotIDs),
		"deleted_slots", len(result.DeletedSlotIDs))
	return result, nil
}

// applyToImpacted partitions the impacted slots by bookings, deletes the
// bookingless ones outright (they regenerate from the new template), and
// updates each booked slot under its own lock, taken and released per slot.
// Capacity fields change only when the capacity changed; an opening change
// additionally decouples the slot from its template by marking it specific.
// Each slot is re-read under its lock so a concurrent single-slot edit cannot
// be overwritten blindly.
func (p *PlanningService) applyToImpacted(ctx context.Context, set impactedSet, capacityChanged bool, newMaxCapacity int, openingChanged, newIsOpen bool) (MutationResult, error) {
	var result MutationResult
	withBookings, withoutBookings := booking.Partition(set.slots, set.appointments)

	if len(withoutBookings) > 0 {
		bookingless := make([]string, 0, len(withoutBookings))
		for _, impacted := range withoutBookings {
			bookingless = append(bookingless, impacted.ID)
		}
		if err := p.slots.DeleteSlots(ctx, bookingless); err != nil {
			return MutationResult{}, err
		}
		result.DeletedSlotIDs = bookingless
	}

	for _, impacted := range withBookings {
		if err := p.applyToOne(ctx, impacted.ID, capacityChanged, newMaxCapacity, openingChanged, newIsOpen, &result); err != nil {
			return MutationResult{}, err
		}
	}
	return result, nil
}

func (p *PlanningService) applyToOne(ctx context.Context, slotID string, capacityChanged bool, newMaxCapacity int, openingChanged, newIsOpen bool, result *MutationResult) error {
	release := p.locks.Acquire(slotID)
	defer release()

	current, err := p.slots.GetSlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			// Deleted by a concurrent mutation; nothing left to update.
			return nil
		}
		return err
	}
	if capacityChanged {
		if current.RecomputeFromCapacityChange(newMaxCapacity) {
			result.Surbooking = true
		}
	}
	if openingChanged {
		current.IsOpen = newIsOpen
		current.IsSpecific = true
	}
	if err := p.slots.SaveSlot(ctx, current); err != nil {
		return err
	}
	result.UpdatedSlotIDs = append(result.UpdatedSlotIDs, current.ID)
	return nil
}

func validateAdvancedParameters(params AdvancedParameters) *ValidationError {
	vErr := &ValidationError{}
	if params.FormID == "" {
		vErr.add("formID", "form id is required")
	}
	if params.DateOfApply.IsZero() {
		vErr.add("dateOfApply", "start date is required")
	}
	if len(params.Shape.Weekdays) == 0 {
		vErr.add("weekdays", "at least one open weekday is required")
	}
	if !params.Shape.EndingTime.After(params.Shape.StartingTime) {
		vErr.add("endingTime", "ending time must be after starting time")
	}
	if params.Shape.DurationMinutes <= 0 {
		vErr.add("duration", "slot duration must be positive")
	}
	if params.Shape.MaxCapacity <= 0 {
		vErr.add("maxCapacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
