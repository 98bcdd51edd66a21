package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using
// SQLite. The slot engine reads appointments for impact analysis; writes exist
// for booking flows and fixtures.
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAppointmentRepository creates a new SQLite appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetAppointment retrieves an appointment with its slot references.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (booking.Appointment, error) {
	row := r.helper.QueryRow(ctx, `SELECT id, form_id, is_cancelled FROM appointments WHERE id = ?`, id)
	var appt booking.Appointment
	if err := row.Scan(&appt.ID, &appt.FormID, &appt.IsCancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Appointment{}, persistence.ErrNotFound
		}
		return booking.Appointment{}, r.mapper.MapError(err)
	}
	if err := r.loadSlots(ctx, &appt); err != nil {
		return booking.Appointment{}, err
	}
	return appt, nil
}

// ListAppointmentsBySlotIDs returns every appointment, cancelled or not,
// referencing at least one of the given slot ids.
func (r *AppointmentRepository) ListAppointmentsBySlotIDs(ctx context.Context, slotIDs []string) ([]booking.Appointment, error) {
	if len(slotIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(slotIDs)-1) + "?"
	args := make([]interface{}, len(slotIDs))
	for i, id := range slotIDs {
		args[i] = id
	}
	query := `
		SELECT DISTINCT a.id, a.form_id, a.is_cancelled
		FROM appointments a
		JOIN appointment_slots s ON s.appointment_id = a.id
		WHERE s.slot_id IN (` + placeholders + `)
		ORDER BY a.id
	`
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var appointments []booking.Appointment
	for rows.Next() {
		var appt booking.Appointment
		if err := rows.Scan(&appt.ID, &appt.FormID, &appt.IsCancelled); err != nil {
			return nil, err
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range appointments {
		if err := r.loadSlots(ctx, &appointments[i]); err != nil {
			return nil, err
		}
	}
	return appointments, nil
}

// SaveAppointment inserts or replaces an appointment and its slot references.
func (r *AppointmentRepository) SaveAppointment(ctx context.Context, appt booking.Appointment) error {
	if appt.ID == "" {
		return persistence.ErrConstraintViolation
	}
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO appointments (id, form_id, is_cancelled) VALUES (?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET form_id = excluded.form_id, is_cancelled = excluded.is_cancelled`,
			appt.ID, appt.FormID, appt.IsCancelled); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM appointment_slots WHERE appointment_id = ?`, appt.ID); err != nil {
			return err
		}
		for _, as := range appt.Slots {
			if _, err := tx.Exec(
				`INSERT INTO appointment_slots (appointment_id, slot_id, nb_places) VALUES (?, ?, ?)`,
				appt.ID, as.SlotID, as.NbPlaces); err != nil {
				return err
			}
		}
		return nil
	})
	return r.mapper.MapError(err)
}

func (r *AppointmentRepository) loadSlots(ctx context.Context, appt *booking.Appointment) error {
	rows, err := r.helper.Query(ctx,
		`SELECT appointment_id, slot_id, nb_places FROM appointment_slots WHERE appointment_id = ? ORDER BY slot_id`,
		appt.ID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var as booking.AppointmentSlot
		if err := rows.Scan(&as.AppointmentID, &as.SlotID, &as.NbPlaces); err != nil {
			return err
		}
		appt.Slots = append(appt.Slots, as)
	}
	return rows.Err()
}
