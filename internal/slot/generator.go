package slot

import (
	"errors"
	"time"

	"github.com/example/appointment-scheduler/internal/planning"
)

// ErrInvalidRange indicates a generation window whose end precedes its start.
var ErrInvalidRange = errors.New("slot: generation range end before start")

// Generator expands weekly templates into concrete dated slots. It is
// deterministic: the same inputs always yield the same slot field values, so
// virtual slots can be discarded and regenerated freely. It never persists.
type Generator struct {
	location *time.Location
}

// NewGenerator constructs a Generator anchored to loc. When loc is nil, UTC
// is used.
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{location: loc}
}

// Location returns the calendar location the generator anchors slots to.
func (g *Generator) Location() *time.Location { return g.location }

// Generate materializes the slots of formID for every civil date in
// [from, to]. For each date the week definition with the latest DateOfApply on
// or before the date applies; dates covered by a closing day emit nothing, as
// do closed templates and weekdays without a working day.
//
// Generated slots have no ID and IsSpecific=false; callers persist only slots
// that later diverge from the template.
func (g *Generator) Generate(formID string, definitions []planning.WeekDefinition, closingDays []planning.ClosingDay, from, to time.Time) ([]Slot, error) {
	loc := g.location
	start := planning.DateOf(from, loc)
	end := planning.DateOf(to, loc)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	closed := make(map[time.Time]struct{}, len(closingDays))
	for _, cd := range closingDays {
		if cd.FormID != formID {
			continue
		}
		closed[planning.DateOf(cd.Date, loc)] = struct{}{}
	}

	var slots []Slot
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if _, ok := closed[date]; ok {
			continue
		}
		def, ok := planning.ClosestTo(definitions, date)
		if !ok {
			continue
		}
		day, ok := def.WorkingDayFor(date.Weekday())
		if !ok {
			continue
		}
		for _, template := range day.TimeSlots {
			if !template.IsOpen {
				continue
			}
			slots = append(slots, Slot{
				FormID:                     formID,
				Date:                       date,
				StartsAt:                   template.StartingTime.At(date, loc),
				EndsAt:                     template.EndingTime.At(date, loc),
				IsOpen:                     true,
				IsSpecific:                 false,
				MaxCapacity:                template.MaxCapacity,
				NbRemainingPlaces:          template.MaxCapacity,
				NbPotentialRemainingPlaces: template.MaxCapacity,
				NbPlacesTaken:              0,
			})
		}
	}
	return slots, nil
}

// Overlay merges persisted slots over generated ones. A persisted slot
// replaces the generated slot sharing its date and starting time; persisted
// slots without a generated counterpart (specific slots on otherwise closed
// positions) are appended.
func Overlay(generated, persisted []Slot) []Slot {
	type key struct {
		date  time.Time
		start time.Time
	}
	index := make(map[key]int, len(generated))
	out := make([]Slot, len(generated))
	copy(out, generated)
	for i, s := range out {
		index[key{s.Date, s.StartsAt}] = i
	}
	for _, p := range persisted {
		if i, ok := index[key{p.Date, p.StartsAt}]; ok {
			out[i] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
