package planning

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeOfDay indicates a time-of-day value outside 00:00..23:59 or a
// string that does not parse as HH:MM.
var ErrInvalidTimeOfDay = errors.New("planning: invalid time of day")

// TimeOfDay is a wall-clock time expressed as minutes since midnight. It
// replaces locale-bound time parsing: a TimeOfDay only becomes an instant when
// combined with a civil date and an explicit location via At.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from an hour and minute pair.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustTimeOfDay is NewTimeOfDay for statically known values. It panics on
// invalid input and is intended for fixtures and wiring code.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses a HH:MM string.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return t, nil
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String formats the value as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool { return t < other }

// After reports whether t is strictly later than other.
func (t TimeOfDay) After(other TimeOfDay) bool { return t > other }

// Add returns the value shifted by d, clamped to the same day.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	shifted := int(t) + int(d/time.Minute)
	if shifted < 0 {
		shifted = 0
	}
	if shifted > 24*60-1 {
		shifted = 24*60 - 1
	}
	return TimeOfDay(shifted)
}

// At anchors the time of day on the civil date of reference in loc.
func (t TimeOfDay) At(reference time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := reference.In(loc).Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// DateOf truncates an instant to its civil date at midnight in loc.
func DateOf(instant time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := instant.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDate reports whether two instants fall on the same civil date in loc.
func SameDate(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc).Equal(DateOf(b, loc))
}
