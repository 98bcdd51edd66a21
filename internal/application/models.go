package application

import (
	"time"

	"github.com/example/appointment-scheduler/internal/planning"
)

// MutationResult reports the outcome of a slot or template mutation.
//
// Surbooking and ValidatedImpacted are informational: the mutation succeeded,
// but the caller should notify operators that capacity now sits below the
// booked count, respectively that non-cancelled appointments sit on a slot
// whose opening changed.
type MutationResult struct {
	Updated           bool
	Surbooking        bool
	ValidatedImpacted bool
	UpdatedSlotIDs    []string
	DeletedSlotIDs    []string
}

// TemplateMutation describes a template-level edit: the change propagates to
// every future concrete slot still coupled to the template.
//
// Shift widens the impact window of each affected slot to the end of its
// calendar day, for edits meant to cascade start-time shifts to all later
// same-day slots.
type TemplateMutation struct {
	FormID           string
	WeekDefinitionID string
	TimeSlotID       string
	NewEndingTime    planning.TimeOfDay
	NewMaxCapacity   int
	NewIsOpen        bool
	Shift            bool
}

// PendingSlot is the explicit value object for a slot that exists on screen
// but not yet in storage: the caller stages the edit across round trips and
// hands the full pending state back on each call. The engine never relies on
// ambient session state.
type PendingSlot struct {
	FormID       string
	Date         time.Time
	StartingTime planning.TimeOfDay
	EndingTime   planning.TimeOfDay
	MaxCapacity  int
	IsOpen       bool
}

// SlotMutation describes a direct edit of one concrete slot. Exactly one of
// SlotID and Pending is set: an empty SlotID means the slot has not been
// persisted yet and Pending carries its staged state.
type SlotMutation struct {
	SlotID  string
	Pending *PendingSlot

	NewEndingTime  planning.TimeOfDay
	NewMaxCapacity int
	NewIsOpen      bool
	Shift          bool
}

// AdvancedParameters describes a week-level swap: a new uniform weekly
// template effective from DateOfApply, replacing the active one for that date
// onward until the next week definition applies.
type AdvancedParameters struct {
	FormID      string
	DateOfApply time.Time
	Shape       planning.WeekShape
}

// CommentInput captures caller provided comment fields.
type CommentInput struct {
	FormID               string
	StartingValidityDate time.Time
	EndingValidityDate   time.Time
	Comment              string
	CreatorUserName      string
}
