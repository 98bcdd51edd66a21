package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/slot"
)

// SlotRepository implements persistence.SlotRepository using SQLite.
type SlotRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSlotRepository creates a new SQLite slot repository.
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const slotColumns = `id, form_id, date, starts_at, ends_at, is_open, is_specific,
	max_capacity, nb_remaining_places, nb_potential_remaining_places, nb_places_taken`

// GetSlot retrieves a slot by id.
func (r *SlotRepository) GetSlot(ctx context.Context, id string) (slot.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = ?`
	s, err := scanSlot(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return slot.Slot{}, persistence.ErrNotFound
		}
		return slot.Slot{}, r.mapper.MapError(err)
	}
	return s, nil
}

// SaveSlot inserts or replaces a slot by id.
func (r *SlotRepository) SaveSlot(ctx context.Context, s slot.Slot) error {
	if s.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO slots (` + slotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			form_id = excluded.form_id,
			date = excluded.date,
			starts_at = excluded.starts_at,
			ends_at = excluded.ends_at,
			is_open = excluded.is_open,
			is_specific = excluded.is_specific,
			max_capacity = excluded.max_capacity,
			nb_remaining_places = excluded.nb_remaining_places,
			nb_potential_remaining_places = excluded.nb_potential_remaining_places,
			nb_places_taken = excluded.nb_places_taken
	`
	_, err := r.helper.Exec(ctx, query,
		s.ID,
		s.FormID,
		formatTime(s.Date),
		formatTime(s.StartsAt),
		formatTime(s.EndsAt),
		s.IsOpen,
		s.IsSpecific,
		s.MaxCapacity,
		s.NbRemainingPlaces,
		s.NbPotentialRemainingPlaces,
		s.NbPlacesTaken,
	)
	return r.mapper.MapError(err)
}

// DeleteSlot removes a slot by id.
func (r *SlotRepository) DeleteSlot(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM slots WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteSlots removes a batch of slots by id. Missing ids are ignored.
func (r *SlotRepository) DeleteSlots(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := r.helper.Exec(ctx, `DELETE FROM slots WHERE id IN (`+placeholders+`)`, args...)
	return r.mapper.MapError(err)
}

// ListSlotsByFormAndRange returns the persisted slots of a form whose starting
// instant falls within [from, to], ordered by start.
func (r *SlotRepository) ListSlotsByFormAndRange(ctx context.Context, formID string, from, to time.Time) ([]slot.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE form_id = ? AND starts_at >= ? AND starts_at <= ?
		ORDER BY starts_at, id
	`
	rows, err := r.helper.Query(ctx, query, formID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []slot.Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (slot.Slot, error) {
	var s slot.Slot
	var date, startsAt, endsAt string
	err := row.Scan(
		&s.ID,
		&s.FormID,
		&date,
		&startsAt,
		&endsAt,
		&s.IsOpen,
		&s.IsSpecific,
		&s.MaxCapacity,
		&s.NbRemainingPlaces,
		&s.NbPotentialRemainingPlaces,
		&s.NbPlacesTaken,
	)
	if err != nil {
		return slot.Slot{}, err
	}
	if s.Date, err = parseTime(date); err != nil {
		return slot.Slot{}, err
	}
	if s.StartsAt, err = parseTime(startsAt); err != nil {
		return slot.Slot{}, err
	}
	if s.EndsAt, err = parseTime(endsAt); err != nil {
		return slot.Slot{}, err
	}
	return s, nil
}
