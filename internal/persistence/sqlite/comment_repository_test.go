package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/appointment-scheduler/internal/persistence"
)

func TestCommentRepository(t *testing.T) {
	repo := NewCommentRepository(newTestPool(t))
	ctx := context.Background()

	comment := persistence.Comment{
		ID:                   "comment-1",
		FormID:               "form-1",
		StartingValidityDate: time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
		EndingValidityDate:   time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC),
		Comment:              "reduced staff this week",
		CreatorUserName:      "admin",
		CreationDate:         time.Date(2026, time.January, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveComment(ctx, comment))

	// Overlapping period.
	got, err := repo.ListCommentsByFormAndPeriod(ctx, "form-1",
		time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "reduced staff this week", got[0].Comment)
	assert.Equal(t, "admin", got[0].CreatorUserName)

	// Disjoint period.
	got, err = repo.ListCommentsByFormAndPeriod(ctx, "form-1",
		time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.DeleteComment(ctx, "comment-1"))
	assert.ErrorIs(t, repo.DeleteComment(ctx, "comment-1"), persistence.ErrNotFound)
}
