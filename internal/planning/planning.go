// Package planning holds the recurring template hierarchy from which concrete
// bookable slots are derived: a WeekDefinition owns WorkingDays which own
// TimeSlot templates. Values are immutable snapshots; editing a template
// produces a new WeekDefinition keyed by its effective date rather than
// mutating shared nodes in place.
package planning

import (
	"sort"
	"time"
)

// TimeSlot is a recurring slot template inside a working day. It is a pattern,
// not a bookable instance.
type TimeSlot struct {
	ID           string
	StartingTime TimeOfDay
	EndingTime   TimeOfDay
	MaxCapacity  int
	IsOpen       bool
}

// WorkingDay groups the time slot templates of one weekday. A working day is
// owned by exactly one WeekDefinition.
type WorkingDay struct {
	ID        string
	DayOfWeek time.Weekday
	TimeSlots []TimeSlot
}

// MinStartingTime returns the earliest template start of the day.
func (w WorkingDay) MinStartingTime() TimeOfDay {
	min := TimeOfDay(24*60 - 1)
	for _, ts := range w.TimeSlots {
		if ts.StartingTime.Before(min) {
			min = ts.StartingTime
		}
	}
	return min
}

// MaxEndingTime returns the latest template end of the day. This bounds the
// ending time an operator may set on any slot of that weekday.
func (w WorkingDay) MaxEndingTime() TimeOfDay {
	var max TimeOfDay
	for _, ts := range w.TimeSlots {
		if ts.EndingTime.After(max) {
			max = ts.EndingTime
		}
	}
	return max
}

// WeekDefinition is one version of the weekly template of a form, effective
// from DateOfApply until superseded by the next version with a later
// DateOfApply.
type WeekDefinition struct {
	ID          string
	FormID      string
	DateOfApply time.Time
	WorkingDays []WorkingDay
}

// WorkingDayFor returns the working day matching the given weekday.
func (w WeekDefinition) WorkingDayFor(day time.Weekday) (WorkingDay, bool) {
	for _, wd := range w.WorkingDays {
		if wd.DayOfWeek == day {
			return wd, true
		}
	}
	return WorkingDay{}, false
}

// TimeSlotByID locates a template and its owning working day.
func (w WeekDefinition) TimeSlotByID(id string) (WorkingDay, TimeSlot, bool) {
	for _, wd := range w.WorkingDays {
		for _, ts := range wd.TimeSlots {
			if ts.ID == id {
				return wd, ts, true
			}
		}
	}
	return WorkingDay{}, TimeSlot{}, false
}

// WithTimeSlot returns a deep copy of the week definition with the template
// matching replacement.ID swapped out. The receiver is left untouched.
func (w WeekDefinition) WithTimeSlot(replacement TimeSlot) WeekDefinition {
	out := w
	out.WorkingDays = make([]WorkingDay, len(w.WorkingDays))
	for i, wd := range w.WorkingDays {
		copied := wd
		copied.TimeSlots = make([]TimeSlot, len(wd.TimeSlots))
		copy(copied.TimeSlots, wd.TimeSlots)
		for j, ts := range copied.TimeSlots {
			if ts.ID == replacement.ID {
				copied.TimeSlots[j] = replacement
			}
		}
		out.WorkingDays[i] = copied
	}
	return out
}

// MinStartingTime returns the earliest template start across the whole week.
func (w WeekDefinition) MinStartingTime() TimeOfDay {
	min := TimeOfDay(24*60 - 1)
	for _, wd := range w.WorkingDays {
		if t := wd.MinStartingTime(); t.Before(min) {
			min = t
		}
	}
	return min
}

// MaxEndingTime returns the latest template end across the whole week. Used as
// the fallback bound when a slot's weekday has no matching working day.
func (w WeekDefinition) MaxEndingTime() TimeOfDay {
	var max TimeOfDay
	for _, wd := range w.WorkingDays {
		if t := wd.MaxEndingTime(); t.After(max) {
			max = t
		}
	}
	return max
}

// ClosestTo selects the week definition whose DateOfApply is the latest one on
// or before date. Returns false when every definition applies later.
func ClosestTo(definitions []WeekDefinition, date time.Time) (WeekDefinition, bool) {
	var best WeekDefinition
	found := false
	for _, def := range definitions {
		if def.DateOfApply.After(date) {
			continue
		}
		if !found || def.DateOfApply.After(best.DateOfApply) {
			best = def
			found = true
		}
	}
	return best, found
}

// NextAfter selects the week definition with the earliest DateOfApply strictly
// after date. It bounds the applicability window of the definition active at
// date.
func NextAfter(definitions []WeekDefinition, date time.Time) (WeekDefinition, bool) {
	var best WeekDefinition
	found := false
	for _, def := range definitions {
		if !def.DateOfApply.After(date) {
			continue
		}
		if !found || def.DateOfApply.Before(best.DateOfApply) {
			best = def
			found = true
		}
	}
	return best, found
}

// SortByDateOfApply orders definitions by ascending effective date, in place.
func SortByDateOfApply(definitions []WeekDefinition) {
	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].DateOfApply.Before(definitions[j].DateOfApply)
	})
}

// ReservationRule carries the per-form slot parameters effective from
// DateOfApply. A rule is paired 1:1 with the WeekDefinition sharing its
// (FormID, DateOfApply) key.
type ReservationRule struct {
	ID                 string
	FormID             string
	DateOfApply        time.Time
	MaxCapacityPerSlot int
	DurationMinutes    int
}

// ClosingDay marks a civil date as fully unavailable for a form. It suppresses
// slot generation for that date and overrides any template.
type ClosingDay struct {
	ID     string
	FormID string
	Date   time.Time
}

// WeekShape describes the uniform parameters used to build a template week,
// mirroring the advanced-parameters form: the same opening hours and slot
// duration on every selected weekday.
type WeekShape struct {
	Weekdays        []time.Weekday
	StartingTime    TimeOfDay
	EndingTime      TimeOfDay
	DurationMinutes int
	MaxCapacity     int
}

// BuildWeek expands a WeekShape into a full WeekDefinition plus its paired
// ReservationRule. Trailing fractions shorter than the slot duration are
// dropped. IDs are assigned through nextID.
func BuildWeek(formID string, dateOfApply time.Time, shape WeekShape, nextID func() string) (WeekDefinition, ReservationRule) {
	def := WeekDefinition{
		ID:          nextID(),
		FormID:      formID,
		DateOfApply: dateOfApply,
	}
	for _, day := range shape.Weekdays {
		wd := WorkingDay{ID: nextID(), DayOfWeek: day}
		for start := shape.StartingTime; int(start)+shape.DurationMinutes <= int(shape.EndingTime); start = TimeOfDay(int(start) + shape.DurationMinutes) {
			wd.TimeSlots = append(wd.TimeSlots, TimeSlot{
				ID:           nextID(),
				StartingTime: start,
				EndingTime:   TimeOfDay(int(start) + shape.DurationMinutes),
				MaxCapacity:  shape.MaxCapacity,
				IsOpen:       true,
			})
		}
		def.WorkingDays = append(def.WorkingDays, wd)
	}
	rule := ReservationRule{
		ID:                 nextID(),
		FormID:             formID,
		DateOfApply:        dateOfApply,
		MaxCapacityPerSlot: shape.MaxCapacity,
		DurationMinutes:    shape.DurationMinutes,
	}
	return def, rule
}

// Covers reports whether the week definition still offers an open template on
// the given weekday spanning [start, end). Used to decide whether a booked
// slot survives a template swap.
func (w WeekDefinition) Covers(day time.Weekday, start, end TimeOfDay) bool {
	wd, ok := w.WorkingDayFor(day)
	if !ok {
		return false
	}
	for _, ts := range wd.TimeSlots {
		if !ts.IsOpen {
			continue
		}
		if !ts.StartingTime.After(start) && !ts.EndingTime.Before(end) {
			return true
		}
	}
	return false
}
