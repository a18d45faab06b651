package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// reviewColumns must match the scan order in scanReview.
const reviewColumns = `r.id, r.user_id, r.book_id, r.rating, r.review_text, r.created_at, r.updated_at`

func scanReview(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Review, error) {
	var (
		r         domain.Review
		text      sql.NullString
		createdAt string
		updatedAt string
	)

	dest := []any{&r.ID, &r.UserID, &r.BookID, &r.Rating, &text, &createdAt, &updatedAt}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	r.ReviewText = text.String

	var err error
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReview retrieves a review by ID.
// Returns store.ErrNotFound if the review does not exist.
func (s *Store) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	return getReview(ctx, s.db, id)
}

// GetReview retrieves a review inside the transaction.
func (t *txStore) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	return getReview(ctx, t.tx, id)
}

func getReview(ctx context.Context, q querier, id int64) (*domain.Review, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews r WHERE r.id = ?`, id)
	r, err := scanReview(row)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// GetReviewByUserAndBook retrieves the review a user wrote for a book.
// Returns store.ErrNotFound if there is none.
func (s *Store) GetReviewByUserAndBook(ctx context.Context, userID, bookID int64) (*domain.Review, error) {
	return getReviewByUserAndBook(ctx, s.db, userID, bookID)
}

// GetReviewByUserAndBook retrieves a user's review inside the transaction.
func (t *txStore) GetReviewByUserAndBook(ctx context.Context, userID, bookID int64) (*domain.Review, error) {
	return getReviewByUserAndBook(ctx, t.tx, userID, bookID)
}

func getReviewByUserAndBook(ctx context.Context, q querier, userID, bookID int64) (*domain.Review, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews r WHERE r.user_id = ? AND r.book_id = ?`, userID, bookID)
	r, err := scanReview(row)
	if err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

// CreateReview inserts a review and sets its ID.
// Returns store.ErrAlreadyExists if the user already reviewed the book and
// store.ErrNotFound if the user or book does not exist.
func (t *txStore) CreateReview(ctx context.Context, r *domain.Review) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO reviews (user_id, book_id, rating, review_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.UserID,
		r.BookID,
		r.Rating,
		nullString(r.ReviewText),
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists
		case isForeignKeyViolation(err):
			return store.ErrNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}

	r.ID, err = res.LastInsertId()
	return err
}

// UpdateReview writes the rating and text of a review.
// Returns store.ErrNotFound if the review does not exist.
func (t *txStore) UpdateReview(ctx context.Context, r *domain.Review) error {
	r.UpdatedAt = time.Now()

	res, err := t.tx.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, review_text = ?, updated_at = ? WHERE id = ?`,
		r.Rating, nullString(r.ReviewText), formatTime(r.UpdatedAt), r.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReview removes a review.
// Returns store.ErrNotFound if the review does not exist.
func (t *txStore) DeleteReview(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReviewedBookIDs returns the IDs of the books a user has reviewed.
func (t *txStore) ReviewedBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT DISTINCT book_id FROM reviews WHERE user_id = ? ORDER BY book_id`, userID)
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

// ListReviewsByBook returns a book's reviews newest first, with reviewer names.
func (s *Store) ListReviewsByBook(ctx context.Context, bookID int64, params store.PaginationParams) (*store.PaginatedResult[*domain.Review], error) {
	return s.pageReviews(ctx, `r.book_id = ?`, params, bookID)
}

// ListReviewsByUser returns a user's reviews newest first.
func (s *Store) ListReviewsByUser(ctx context.Context, userID int64, params store.PaginationParams) (*store.PaginatedResult[*domain.Review], error) {
	return s.pageReviews(ctx, `r.user_id = ?`, params, userID)
}

func (s *Store) pageReviews(ctx context.Context, where string, params store.PaginationParams, arg any) (*store.PaginatedResult[*domain.Review], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithMessage(err.Error())
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews r WHERE `+where, arg).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`, u.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE `+where+`
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ? OFFSET ?`, arg, params.Limit+1, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		var name string
		r, err := scanReview(rows, &name)
		if err != nil {
			return nil, err
		}
		r.UserName = name
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return store.NewPage(reviews, params, offset, total), nil
}

// CountByBook returns the number of reviews of a book.
func (s *Store) CountByBook(ctx context.Context, bookID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE book_id = ?`, bookID).Scan(&n)
	return n, err
}

// AverageRatingByBook returns the unrounded mean rating of a book, or 0
// when it has no reviews.
func (s *Store) AverageRatingByBook(ctx context.Context, bookID int64) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT AVG(rating) FROM reviews WHERE book_id = ?`, bookID).Scan(&avg)
	return avg.Float64, err
}

// RatingTotals returns the count and rating sum of a book's reviews.
func (s *Store) RatingTotals(ctx context.Context, bookID int64) (count, sum int, err error) {
	return ratingTotals(ctx, s.db, bookID)
}

// RatingTotals returns the count and rating sum inside the transaction.
func (t *txStore) RatingTotals(ctx context.Context, bookID int64) (count, sum int, err error) {
	return ratingTotals(ctx, t.tx, bookID)
}

func ratingTotals(ctx context.Context, q querier, bookID int64) (count, sum int, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE book_id = ?`, bookID).
		Scan(&count, &sum)
	if err != nil {
		return 0, 0, fmt.Errorf("rating totals: %w", err)
	}
	return count, sum, nil
}

// RatingCounts returns the number of reviews per star value present.
func (s *Store) RatingCounts(ctx context.Context, bookID int64) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rating, COUNT(*) FROM reviews WHERE book_id = ? GROUP BY rating`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		counts[rating] = n
	}
	return counts, rows.Err()
}
