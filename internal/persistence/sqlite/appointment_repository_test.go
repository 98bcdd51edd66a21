package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointment-scheduler/internal/booking"
	"github.com/example/appointment-scheduler/internal/persistence"
)

func TestAppointmentRepository_SaveAndGet(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))
	ctx := context.Background()

	appt := booking.Appointment{
		ID:     "appt-1",
		FormID: "form-1",
		Slots: []booking.AppointmentSlot{
			{AppointmentID: "appt-1", SlotID: "slot-1", NbPlaces: 1},
			{AppointmentID: "appt-1", SlotID: "slot-2", NbPlaces: 2},
		},
	}
	require.NoError(t, repo.SaveAppointment(ctx, appt))

	got, err := repo.GetAppointment(ctx, "appt-1")
	require.NoError(t, err)
	assert.False(t, got.IsCancelled)
	require.Len(t, got.Slots, 2)
	assert.Equal(t, 2, got.Slots[1].NbPlaces)

	// Re-saving replaces the slot references.
	appt.IsCancelled = true
	appt.Slots = appt.Slots[:1]
	require.NoError(t, repo.SaveAppointment(ctx, appt))
	got, err = repo.GetAppointment(ctx, "appt-1")
	require.NoError(t, err)
	assert.True(t, got.IsCancelled)
	assert.Len(t, got.Slots, 1)

	_, err = repo.GetAppointment(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestAppointmentRepository_ListBySlotIDs(t *testing.T) {
	repo := NewAppointmentRepository(newTestPool(t))
	ctx := context.Background()

	first := booking.Appointment{
		ID:     "appt-1",
		FormID: "form-1",
		Slots:  []booking.AppointmentSlot{{AppointmentID: "appt-1", SlotID: "slot-1", NbPlaces: 1}},
	}
	cancelled := booking.Appointment{
		ID:          "appt-2",
		FormID:      "form-1",
		IsCancelled: true,
		Slots:       []booking.AppointmentSlot{{AppointmentID: "appt-2", SlotID: "slot-1", NbPlaces: 1}},
	}
	unrelated := booking.Appointment{
		ID:     "appt-3",
		FormID: "form-1",
		Slots:  []booking.AppointmentSlot{{AppointmentID: "appt-3", SlotID: "slot-9", NbPlaces: 1}},
	}
	require.NoError(t, repo.SaveAppointment(ctx, first))
	require.NoError(t, repo.SaveAppointment(ctx, cancelled))
	require.NoError(t, repo.SaveAppointment(ctx, unrelated))

	got, err := repo.ListAppointmentsBySlotIDs(ctx, []string{"slot-1", "slot-2"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "appt-1", got[0].ID)
	assert.Equal(t, "appt-2", got[1].ID)
	assert.True(t, got[1].IsCancelled)

	got, err = repo.ListAppointmentsBySlotIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
