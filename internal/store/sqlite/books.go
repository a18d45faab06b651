package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/genre"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `b.id, b.title, b.author, b.description, b.genres, b.published_year,
	b.cover_image_url, b.average_rating, b.review_count, b.created_at, b.updated_at`

// byRating is the ranking used by every recommendation query.
const byRating = ` ORDER BY b.average_rating DESC, b.review_count DESC, b.id ASC`

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b             domain.Book
		description   sql.NullString
		genres        sql.NullString
		publishedYear sql.NullInt64
		coverURL      sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := scanner.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&description,
		&genres,
		&publishedYear,
		&coverURL,
		&b.AverageRating,
		&b.ReviewCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Description = description.String
	b.Genres = genres.String
	b.PublishedYear = int(publishedYear.Int64)
	b.CoverImageURL = coverURL.String

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func queryBooks(ctx context.Context, q querier, query string, args ...any) ([]*domain.Book, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// pageBooks runs "SELECT ... FROM books b <from> <order>" with offset pagination.
func (s *Store) pageBooks(ctx context.Context, from, order string, params store.PaginationParams, args ...any) (*store.PaginatedResult[*domain.Book], error) {
	params.Validate()
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithMessage(err.Error())
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b `+from, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	pageArgs := append(append([]any{}, args...), params.Limit+1, offset)
	books, err := queryBooks(ctx, s.db,
		`SELECT `+bookColumns+` FROM books b `+from+order+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, err
	}
	return store.NewPage(books, params, offset, total), nil
}

// CreateBook inserts a book and its genre slugs, and sets the ID.
// The rating aggregate always starts at zero.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = now
	book.AverageRating = 0
	book.ReviewCount = 0

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO books (
			title, author, description, genres, published_year, cover_image_url,
			average_rating, review_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		book.Title,
		book.Author,
		nullString(book.Description),
		nullString(book.Genres),
		nullInt(book.PublishedYear),
		nullString(book.CoverImageURL),
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	if book.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	if err := setBookGenres(ctx, tx, book.ID, book.Genres); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateBook writes the catalog fields of a book. The rating aggregate is
// left untouched. Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	book.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE books SET
			title = ?, author = ?, description = ?, genres = ?,
			published_year = ?, cover_image_url = ?, updated_at = ?
		WHERE id = ?`,
		book.Title,
		book.Author,
		nullString(book.Description),
		nullString(book.Genres),
		nullInt(book.PublishedYear),
		nullString(book.CoverImageURL),
		formatTime(book.UpdatedAt),
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}

	if err := setBookGenres(ctx, tx, book.ID, book.Genres); err != nil {
		return err
	}
	return tx.Commit()
}

func setBookGenres(ctx context.Context, tx *sql.Tx, bookID int64, genres string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_genres WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("clear book genres: %w", err)
	}
	for _, slug := range genre.Slugs(genres) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO book_genres (book_id, slug) VALUES (?, ?)`, bookID, slug); err != nil {
			return fmt.Errorf("insert book genre: %w", err)
		}
	}
	return nil
}

// DeleteBook removes a book. Its reviews, favorites and genres cascade.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	return getBook(ctx, s.db, id)
}

// GetBook retrieves a book inside the transaction.
func (t *txStore) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	return getBook(ctx, t.tx, id)
}

func getBook(ctx context.Context, q querier, id int64) (*domain.Book, error) {
	row := q.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books b WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

// GetBooksByIDs returns the books that exist among ids, in the order given.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []int64) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	books, err := queryBooks(ctx, s.db,
		`SELECT `+bookColumns+` FROM books b WHERE b.id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	ordered := make([]*domain.Book, 0, len(books))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// ListBooks returns books ordered by ID.
func (s *Store) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	return s.pageBooks(ctx, "", ` ORDER BY b.id ASC`, params)
}

// ListAllBooks returns every book ordered by ID.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	return queryBooks(ctx, s.db, `SELECT `+bookColumns+` FROM books b ORDER BY b.id ASC`)
}

// CountBooks returns the number of books in the catalog.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

// SearchBooks matches query against title, author and genres with LIKE.
// It backs catalog search when the full-text index is unavailable.
func (s *Store) SearchBooks(ctx context.Context, query string, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return s.pageBooks(ctx,
		`WHERE b.title LIKE ? ESCAPE '\' OR b.author LIKE ? ESCAPE '\' OR b.genres LIKE ? ESCAPE '\'`,
		byRating, params, pattern, pattern, pattern)
}

// ListTopRated returns reviewed books rated at least minRating.
func (s *Store) ListTopRated(ctx context.Context, minRating float64, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	return s.pageBooks(ctx, `WHERE b.average_rating >= ? AND b.review_count > 0`, byRating, params, minRating)
}

// ListPopular returns books with at least minReviews reviews, most reviewed first.
func (s *Store) ListPopular(ctx context.Context, minReviews int, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	return s.pageBooks(ctx, `WHERE b.review_count >= ?`,
		` ORDER BY b.review_count DESC, b.average_rating DESC, b.id ASC`, params, minReviews)
}

// ListRecent returns books newest first.
func (s *Store) ListRecent(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	return s.pageBooks(ctx, "", ` ORDER BY b.created_at DESC, b.id DESC`, params)
}

// FindSimilar returns books other than bookID that share the author
// (case-insensitive) or at least one canonical genre slug.
func (s *Store) FindSimilar(ctx context.Context, bookID int64, author, genres string, limit int) ([]*domain.Book, error) {
	if limit <= 0 {
		return nil, nil
	}

	where := `b.author = ? COLLATE NOCASE`
	args := []any{bookID, strings.TrimSpace(author)}

	if slugs := genre.Slugs(genres); len(slugs) > 0 {
		where += ` OR EXISTS (SELECT 1 FROM book_genres g WHERE g.book_id = b.id AND g.slug IN (` +
			placeholders(len(slugs)) + `))`
		for _, slug := range slugs {
			args = append(args, slug)
		}
	}
	args = append(args, limit)

	return queryBooks(ctx, s.db,
		`SELECT `+bookColumns+` FROM books b WHERE b.id != ? AND (`+where+`)`+byRating+` LIMIT ?`, args...)
}

// FindByGenre returns books tagged with the genre, matched by canonical slug.
func (s *Store) FindByGenre(ctx context.Context, tag string, limit int) ([]*domain.Book, error) {
	slug := genre.Canonical(tag)
	if slug == "" || limit <= 0 {
		return nil, nil
	}
	return queryBooks(ctx, s.db, `
		SELECT `+bookColumns+` FROM books b
		JOIN book_genres g ON g.book_id = b.id
		WHERE g.slug = ?`+byRating+` LIMIT ?`, slug, limit)
}

// FindTopRated returns reviewed books rated at least minRating.
func (s *Store) FindTopRated(ctx context.Context, minRating float64, limit int) ([]*domain.Book, error) {
	if limit <= 0 {
		return nil, nil
	}
	return queryBooks(ctx, s.db, `
		SELECT `+bookColumns+` FROM books b
		WHERE b.average_rating >= ? AND b.review_count > 0`+byRating+` LIMIT ?`, minRating, limit)
}

// FindByTitleOrAuthor returns books whose title contains title or whose
// author contains author, case-insensitively. Empty terms are ignored.
func (s *Store) FindByTitleOrAuthor(ctx context.Context, title, author string) ([]*domain.Book, error) {
	var (
		conds []string
		args  []any
	)
	if t := strings.TrimSpace(title); t != "" {
		conds = append(conds, `b.title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(t)+"%")
	}
	if a := strings.TrimSpace(author); a != "" {
		conds = append(conds, `b.author LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(a)+"%")
	}
	if len(conds) == 0 {
		return nil, nil
	}
	return queryBooks(ctx, s.db,
		`SELECT `+bookColumns+` FROM books b WHERE `+strings.Join(conds, " OR ")+byRating, args...)
}

// SetBookAggregate writes the derived rating fields.
func (t *txStore) SetBookAggregate(ctx context.Context, bookID int64, agg domain.Aggregate) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE books SET average_rating = ?, review_count = ? WHERE id = ?`,
		agg.AverageRating(), agg.ReviewCount, bookID)
	if err != nil {
		return fmt.Errorf("set book aggregate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
