// Package testfixtures provides deterministic builders for the slot engine's
// domain values plus controllable clocks and id generators, so tests across
// packages share one canonical data shape.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/planning"
	"github.com/example/appointment-scheduler/internal/slot"
)

var (
	definitionCounter  uint64
	slotCounter        uint64
	appointmentCounter uint64
)

// referenceTime is a Friday; fixture week definitions apply from the following
// Monday.
var referenceTime = time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceMonday returns the first Monday after ReferenceTime, the default
// date of apply for week definition fixtures.
func ReferenceMonday() time.Time {
	return time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
}

// WeekDefinitionOption configures a generated week definition fixture.
type WeekDefinitionOption func(*planning.WeekDefinition)

// NewWeekDefinition returns a deterministic week definition: Monday through
// Friday, 09:00 to 12:00 in 30 minute slots of capacity 2.
func NewWeekDefinition(opts ...WeekDefinitionOption) planning.WeekDefinition {
	idx := atomic.AddUint64(&definitionCounter, 1)
	ids := NewIDGenerator(fmt.Sprintf("wd-%03d", idx))
	shape := planning.WeekShape{
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		StartingTime:    planning.MustTimeOfDay(9, 0),
		EndingTime:      planning.MustTimeOfDay(12, 0),
		DurationMinutes: 30,
		MaxCapacity:     2,
	}
	def, _ := planning.BuildWeek(fmt.Sprintf("form-%03d", idx), ReferenceMonday(), shape, ids.Next)
	for _, opt := range opts {
		opt(&def)
	}
	return def
}

// WithFormID overrides the generated form id.
func WithFormID(formID string) WeekDefinitionOption {
	return func(def *planning.WeekDefinition) {
		def.FormID = formID
	}
}

// WithDateOfApply overrides the effective date.
func WithDateOfApply(dateOfApply time.Time) WeekDefinitionOption {
	return func(def *planning.WeekDefinition) {
		def.DateOfApply = dateOfApply
	}
}

// SlotOption configures a generated slot fixture.
type SlotOption func(*slot.Slot)

// NewSlot returns a deterministic persisted slot: open, capacity 2, 30
// minutes, starting 09:00 on ReferenceMonday plus one week.
func NewSlot(opts ...SlotOption) slot.Slot {
	idx := atomic.AddUint64(&slotCounter, 1)
	date := ReferenceMonday().AddDate(0, 0, 7)
	s := slot.Slot{
		ID:                         fmt.Sprintf("slot-%03d", idx),
		FormID:                     "form-001",
		Date:                       date,
		StartsAt:                   date.Add(9 * time.Hour),
		EndsAt:                     date.Add(9*time.Hour + 30*time.Minute),
		IsOpen:                     true,
		MaxCapacity:                2,
		NbRemainingPlaces:          2,
		NbPotentialRemainingPlaces: 2,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithSlotID overrides the generated slot id.
func WithSlotID(id string) SlotOption {
	return func(s *slot.Slot) {
		s.ID = id
	}
}

// WithSlotFormID overrides the owning form.
func WithSlotFormID(formID string) SlotOption {
	return func(s *slot.Slot) {
		s.FormID = formID
	}
}

// WithSlotStart moves the slot to start at the given instant, keeping its 30
// minute length.
func WithSlotStart(start time.Time) SlotOption {
	return func(s *slot.Slot) {
		s.Date = planning.DateOf(start, time.UTC)
		s.StartsAt = start
		s.EndsAt = start.Add(30 * time.Minute)
	}
}

// WithBookedPlaces marks nbPlaces of the slot as taken.
func WithBookedPlaces(nbPlaces int) SlotOption {
	return func(s *slot.Slot) {
		s.NbPlacesTaken = nbPlaces
		s.NbRemainingPlaces = s.MaxCapacity - nbPlaces
		s.NbPotentialRemainingPlaces = s.MaxCapacity - nbPlaces
	}
}

// AppointmentOption configures a generated appointment fixture.
type AppointmentOption func(*booking.Appointment)

// NewAppointment returns a deterministic appointment consuming one place on
// each of the given slots.
func NewAppointment(slotIDs []string, opts ...AppointmentOption) booking.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	appt := booking.Appointment{
		ID:     fmt.Sprintf("appt-%03d", idx),
		FormID: "form-001",
	}
	for _, slotID := range slotIDs {
		appt.Slots = append(appt.Slots, booking.AppointmentSlot{
			AppointmentID: appt.ID,
			SlotID:        slotID,
			NbPlaces:      1,
		})
	}
	for _, opt := range opts {
		opt(&appt)
	}
	return appt
}

// Cancelled marks the appointment as cancelled.
func Cancelled() AppointmentOption {
	return func(appt *booking.Appointment) {
		appt.IsCancelled = true
	}
}

// WithAppointmentFormID overrides the owning form.
func WithAppointmentFormID(formID string) AppointmentOption {
	return func(appt *booking.Appointment) {
		appt.FormID = formID
	}
}
