package sqlite

import (
	"context"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
)

// CommentRepository implements persistence.CommentRepository using SQLite.
type CommentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCommentRepository creates a new SQLite comment repository.
func NewCommentRepository(pool *ConnectionPool) *CommentRepository {
	return &CommentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// SaveComment inserts or replaces a comment by id.
func (r *CommentRepository) SaveComment(ctx context.Context, comment persistence.Comment) error {
	if comment.ID == "" {
		return persistence.ErrConstraintViolation
	}
	query := `
		INSERT INTO comments (id, form_id, starting_validity_date, ending_validity_date, comment, creator_user_name, creation_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			form_id = excluded.form_id,
			starting_validity_date = excluded.starting_validity_date,
			ending_validity_date = excluded.ending_validity_date,
			comment = excluded.comment,
			creator_user_name = excluded.creator_user_name,
			creation_date = excluded.creation_date
	`
	_, err := r.helper.Exec(ctx, query,
		comment.ID,
		comment.FormID,
		formatTime(comment.StartingValidityDate),
		formatTime(comment.EndingValidityDate),
		comment.Comment,
		comment.CreatorUserName,
		formatTime(comment.CreationDate),
	)
	return r.mapper.MapError(err)
}

// ListCommentsByFormAndPeriod returns the comments of a form whose validity
// range overlaps [from, to], ordered by starting validity date.
func (r *CommentRepository) ListCommentsByFormAndPeriod(ctx context.Context, formID string, from, to time.Time) ([]persistence.Comment, error) {
	query := `
		SELECT id, form_id, starting_validity_date, ending_validity_date, comment, creator_user_name, creation_date
		FROM comments
		WHERE form_id = ? AND ending_validity_date >= ? AND starting_validity_date <= ?
		ORDER BY starting_validity_date, id
	`
	rows, err := r.helper.Query(ctx, query, formID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var comments []persistence.Comment
	for rows.Next() {
		var c persistence.Comment
		var start, end, created string
		if err := rows.Scan(&c.ID, &c.FormID, &start, &end, &c.Comment, &c.CreatorUserName, &created); err != nil {
			return nil, err
		}
		if c.StartingValidityDate, err = parseTime(start); err != nil {
			return nil, err
		}
		if c.EndingValidityDate, err = parseTime(end); err != nil {
			return nil, err
		}
		if c.CreationDate, err = parseTime(created); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// DeleteComment removes a comment by id.
func (r *CommentRepository) DeleteComment(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM comments WHERE id = ?`, id)
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
