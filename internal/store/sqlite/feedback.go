package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// UpsertFeedback records a user's reaction to a book, replacing any earlier one.
// Returns store.ErrNotFound if the user or book does not exist.
func (s *Store) UpsertFeedback(ctx context.Context, fb *domain.RecommendationFeedback) error {
	now := time.Now()
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = now
	}
	fb.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recommendation_feedback (user_id, book_id, kind, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, book_id) DO UPDATE SET
			kind = excluded.kind,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		fb.UserID,
		fb.BookID,
		string(fb.Kind),
		nullString(fb.Reason),
		formatTime(fb.CreatedAt),
		formatTime(fb.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("upsert feedback: %w", err)
	}
	return nil
}

// GetFeedback returns a user's reaction to a book.
// Returns store.ErrNotFound if there is none.
func (s *Store) GetFeedback(ctx context.Context, userID, bookID int64) (*domain.RecommendationFeedback, error) {
	var (
		fb        domain.RecommendationFeedback
		kind      string
		reason    sql.NullString
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, book_id, kind, reason, created_at, updated_at
		FROM recommendation_feedback WHERE user_id = ? AND book_id = ?`, userID, bookID).
		Scan(&fb.UserID, &fb.BookID, &kind, &reason, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	fb.Kind = domain.FeedbackKind(kind)
	fb.Reason = reason.String
	if fb.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if fb.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &fb, nil
}

// ListDislikedBookIDs returns the books a user has disliked.
func (s *Store) ListDislikedBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id FROM recommendation_feedback WHERE user_id = ? AND kind = ? ORDER BY book_id`,
		userID, string(domain.FeedbackDislike))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
