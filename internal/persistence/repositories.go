// Package persistence declares the durable-store contracts consumed by the
// slot engine. The engine treats storage as load/save/delete operations behind
// these interfaces; SQL lives in the sqlite subpackage.
package persistence

import (
	"context"
	"time"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/planning"
	"github.com/example/appointment-scheduler/internal/slot"
)

// SlotRepository stores concrete slots that have diverged from their template.
type SlotRepository interface {
	GetSlot(ctx context.Context, id string) (slot.Slot, error)
	// SaveSlot inserts or replaces a slot by id.
	SaveSlot(ctx context.Context, s slot.Slot) error
	DeleteSlot(ctx context.Context, id string) error
	DeleteSlots(ctx context.Context, ids []string) error
	// ListSlotsByFormAndRange returns the persisted slots of a form whose
	// starting instant falls within [from, to].
	ListSlotsByFormAndRange(ctx context.Context, formID string, from, to time.Time) ([]slot.Slot, error)
}

// PlanningRepository stores week definition snapshots, reservation rules and
// closing days. Saving a week definition replaces any previous snapshot with
// the same (form, date of apply) key; templates are append/replace, never
// edited in place.
type PlanningRepository interface {
	GetWeekDefinition(ctx context.Context, id string) (planning.WeekDefinition, error)
	ListWeekDefinitions(ctx context.Context, formID string) ([]planning.WeekDefinition, error)
	SaveWeekDefinition(ctx context.Context, def planning.WeekDefinition) error
	DeleteWeekDefinition(ctx context.Context, id string) error

	GetReservationRule(ctx context.Context, formID string, dateOfApply time.Time) (planning.ReservationRule, error)
	ListReservationRules(ctx context.Context, formID string) ([]planning.ReservationRule, error)
	SaveReservationRule(ctx context.Context, rule planning.ReservationRule) error
	DeleteReservationRule(ctx context.Context, id string) error

	GetClosingDay(ctx context.Context, formID string, date time.Time) (planning.ClosingDay, error)
	ListClosingDays(ctx context.Context, formID string, from, to time.Time) ([]planning.ClosingDay, error)
	SaveClosingDay(ctx context.Context, day planning.ClosingDay) error
	DeleteClosingDay(ctx context.Context, id string) error
}

// AppointmentRepository exposes the booking index: which appointments
// reference which slots. The slot engine only reads appointments.
type AppointmentRepository interface {
	GetAppointment(ctx context.Context, id string) (booking.Appointment, error)
	// ListAppointmentsBySlotIDs returns every appointment, cancelled or not,
	// referencing at least one of the given slot ids.
	ListAppointmentsBySlotIDs(ctx context.Context, slotIDs []string) ([]booking.Appointment, error)
	SaveAppointment(ctx context.Context, appt booking.Appointment) error
}

// Comment is a timestamped free-text note attached to a form for a validity
// period. It has no concurrency coupling to slots.
type Comment struct {
	ID                   string
	FormID               string
	StartingValidityDate time.Time
	EndingValidityDate   time.Time
	Comment              string
	CreatorUserName      string
	CreationDate         time.Time
}

// CommentRepository stores form comments.
type CommentRepository interface {
	SaveComment(ctx context.Context, comment Comment) error
	// ListCommentsByFormAndPeriod returns the comments of a form whose
	// validity range overlaps [from, to].
	ListCommentsByFormAndPeriod(ctx context.Context, formID string, from, to time.Time) ([]Comment, error)
	DeleteComment(ctx context.Context, id string) error
}
