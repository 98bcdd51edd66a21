package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// CommentService manages the free-text notices attached to a form for a
// validity period, shown alongside the calendar. Comments never touch slots
// or bookings, so no locking is involved.
type CommentService struct {
	comments    persistence.CommentRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCommentService wires dependencies for comment operations.
func NewCommentService(comments persistence.CommentRepository, idGenerator func() string, now func() time.Time) *CommentService {
	return NewCommentServiceWithLogger(comments, idGenerator, now, nil)
}

// NewCommentServiceWithLogger wires dependencies for comment operations with
// an explicit base logger.
func NewCommentServiceWithLogger(comments persistence.CommentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CommentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CommentService{
		comments:    comments,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// AddComment validates and stores a new comment for a form.
func (c *CommentService) AddComment(ctx context.Context, input CommentInput) (persistence.Comment, error) {
	if c == nil {
		return persistence.Comment{}, fmt.Errorf("CommentService is nil")
	}
	logger := serviceLogger(ctx, c.logger, "comment", "AddComment", "form_id", input.FormID)

	if vErr := validateComment(input); vErr != nil {
		return persistence.Comment{}, vErr
	}

	comment := persistence.Comment{
		ID:                   c.idGenerator(),
		FormID:               input.FormID,
		StartingValidityDate: input.StartingValidityDate,
		EndingValidityDate:   input.EndingValidityDate,
		Comment:              input.Comment,
		CreatorUserName:      input.CreatorUserName,
		CreationDate:         c.now(),
	}
	if err := c.comments.SaveComment(ctx, comment); err != nil {
		return persistence.Comment{}, err
	}

	logger.Info("comment added", "comment_id", comment.ID)
	return comment, nil
}

// ListComments returns the comments of a form whose validity period overlaps
// [from, to].
func (c *CommentService) ListComments(ctx context.Context, formID string, from, to time.Time) ([]persistence.Comment, error) {
	if c == nil {
		return nil, fmt.Errorf("CommentService is nil")
	}
	return c.comments.ListCommentsByFormAndPeriod(ctx, formID, from, to)
}

// RemoveComment deletes a comment by id.
func (c *CommentService) RemoveComment(ctx context.Context, commentID string) error {
	if c == nil {
		return fmt.Errorf("CommentService is nil")
	}
	logger := serviceLogger(ctx, c.logger, "comment", "RemoveComment", "comment_id", commentID)

	if err := c.comments.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	logger.Info("comment removed")
	return nil
}

func validateComment(input CommentInput) *ValidationError {
	vErr := &ValidationError{}
	if input.FormID == "" {
		vErr.add("formId", "form id is required")
	}
	if input.Comment == "" {
		vErr.add("comment", "comment text is required")
	}
	if input.EndingValidityDate.Before(input.StartingValidityDate) {
		vErr.add("endingValidityDate", "ending validity date cannot precede starting validity date")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
