package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// AddFavorite saves a book for a user. Adding an existing favorite is a no-op.
// Returns store.ErrNotFound if the user or book does not exist.
func (s *Store) AddFavorite(ctx context.Context, userID, bookID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, book_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, book_id) DO NOTHING`,
		userID, bookID, formatTime(time.Now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unsaves a book and reports whether it was saved.
func (s *Store) RemoveFavorite(ctx context.Context, userID, bookID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// IsFavorite reports whether the user saved the book.
func (s *Store) IsFavorite(ctx context.Context, userID, bookID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM favorites WHERE user_id = ? AND book_id = ?`, userID, bookID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListFavorites returns a user's favorite books in the order they were saved.
func (s *Store) ListFavorites(ctx context.Context, userID int64) ([]*domain.Book, error) {
	return queryBooks(ctx, s.db, `
		SELECT `+bookColumns+` FROM books b
		JOIN favorites f ON f.book_id = b.id
		WHERE f.user_id = ?
		ORDER BY f.created_at ASC, b.id ASC`, userID)
}
