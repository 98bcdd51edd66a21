package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/slot"
)

func sampleSlot(id string, start time.Time) slot.Slot {
	return slot.Slot{
		ID:                         id,
		FormID:                     "form-1",
		Date:                       start.Truncate(24 * time.Hour),
		StartsAt:                   start,
		EndsAt:                     start.Add(30 * time.Minute),
		IsOpen:                     true,
		MaxCapacity:                2,
		NbRemainingPlaces:          2,
		NbPotentialRemainingPlaces: 2,
	}
}

func TestSlotRepository_SaveAndGet(t *testing.T) {
	repo := NewSlotRepository(newTestPool(t))
	ctx := context.Background()
	start := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)

	s := sampleSlot("slot-1", start)
	s.NbPlacesTaken = 1
	s.NbRemainingPlaces = 1
	s.NbPotentialRemainingPlaces = 1
	require.NoError(t, repo.SaveSlot(ctx, s))

	got, err := repo.GetSlot(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, s.FormID, got.FormID)
	assert.True(t, got.StartsAt.Equal(s.StartsAt))
	assert.Equal(t, 1, got.NbPlacesTaken)
	assert.Equal(t, 1, got.NbRemainingPlaces)
	assert.True(t, got.IsOpen)
	assert.False(t, got.IsSpecific)

	// Saving again replaces the row.
	s.IsSpecific = true
	s.MaxCapacity = 5
	require.NoError(t, repo.SaveSlot(ctx, s))
	got, err = repo.GetSlot(ctx, "slot-1")
	require.NoError(t, err)
	assert.True(t, got.IsSpecific)
	assert.Equal(t, 5, got.MaxCapacity)
}

func TestSlotRepository_GetMissing(t *testing.T) {
	repo := NewSlotRepository(newTestPool(t))

	_, err := repo.GetSlot(context.Background(), "missing")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestSlotRepository_SaveWithoutID(t *testing.T) {
	repo := NewSlotRepository(newTestPool(t))

	err := repo.SaveSlot(context.Background(), slot.Slot{FormID: "form-1"})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
}

func TestSlotRepository_ListByFormAndRange(t *testing.T) {
	repo := NewSlotRepository(newTestPool(t))
	ctx := context.Background()
	monday := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveSlot(ctx, sampleSlot("slot-1", monday)))
	require.NoError(t, repo.SaveSlot(ctx, sampleSlot("slot-2", monday.Add(30*time.Minute))))
	require.NoError(t, repo.SaveSlot(ctx, sampleSlot("slot-3", monday.AddDate(0, 0, 14))))
	other := sampleSlot("slot-4", monday)
	other.FormID = "form-2"
	require.NoError(t, repo.SaveSlot(ctx, other))

	got, err := repo.ListSlotsByFormAndRange(ctx, "form-1", monday, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "slot-1", got[0].ID)
	assert.Equal(t, "slot-2", got[1].ID)
}

func TestSlotRepository_DeleteSlots(t *testing.T) {
	repo := NewSlotRepository(newTestPool(t))
	ctx := context.Background()
	monday := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveSlot(ctx, sampleSlot("slot-1", monday)))
	require.NoError(t, repo.SaveSlot(ctx, sampleSlot("slot-2", monday.Add(30*time.Minute))))

	require.NoError(t, repo.DeleteSlots(ctx, []string{"slot-1", "slot-2", "missing"}))

	_, err := repo.GetSlot(ctx, "slot-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	// Empty batches are a no-op.
	require.NoError(t, repo.DeleteSlots(ctx, nil))

	assert.ErrorIs(t, repo.DeleteSlot(ctx, "slot-1"), persistence.ErrNotFound)
}
