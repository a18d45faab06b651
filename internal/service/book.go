package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/genre"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// Catalog list defaults.
const (
	DefaultTopRatedMin   = 3.0
	DefaultPopularMin    = 1
	DefaultSimilarLimit  = 10
	MaxSimilarLimit      = 50
	searchBackendBleve   = "bleve"
	searchBackendSQLLike = "sql"
)

// BookService orchestrates catalog and favorites operations.
type BookService struct {
	store    store.Store
	searcher CatalogSearcher
	indexer  *CatalogIndexer
	logger   *slog.Logger
	now      func() time.Time
}

// NewBookService creates a new book service. A nil searcher makes every
// search use the SQL fallback.
func NewBookService(store store.Store, searcher CatalogSearcher, indexer *CatalogIndexer, logger *slog.Logger) *BookService {
	return &BookService{
		store:    store,
		searcher: searcher,
		indexer:  indexer,
		logger:   logger,
		now:      time.Now,
	}
}

// BookInput holds the writable catalog fields of a new book.
type BookInput struct {
	Title         string
	Author        string
	Description   string
	Genres        string
	PublishedYear int
	CoverImageURL string
}

// BookUpdate holds a partial update; nil fields are left unchanged.
type BookUpdate struct {
	Title         *string
	Author        *string
	Description   *string
	Genres        *string
	PublishedYear *int
	CoverImageURL *string
}

// BookSearch configures a catalog search.
type BookSearch struct {
	Query     string
	Genres    []string // canonical slugs or display names
	MinRating float64
	MinYear   int
	MaxYear   int
	SortBy    string // relevance, rating, title, recent
}

// SearchResults is a page of search hits.
type SearchResults struct {
	*store.PaginatedResult[*domain.Book]
	Genres  []search.FacetCount `json:"genres,omitempty"`
	Backend string              `json:"backend"`
}

func bookNotFound(id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("book %d not found", id)
	}
	return fmt.Errorf("get book: %w", err)
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, bookNotFound(id, err)
	}
	return book, nil
}

// ListBooks returns a page of the catalog, newest first.
func (s *BookService) ListBooks(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Validate()
	return pageOrError(s.store.ListBooks(ctx, params))
}

// SearchBooks searches the catalog. The Bleve index serves the query; when
// it is missing or errors, a title/author LIKE query serves it instead,
// without filters or facets.
func (s *BookService) SearchBooks(ctx context.Context, q BookSearch, params store.PaginationParams) (*SearchResults, error) {
	params.Validate()
	q.Query = strings.TrimSpace(q.Query)

	if s.searcher != nil {
		res, err := s.searchIndex(ctx, q, params)
		if err == nil {
			metrics.RecordSearch(searchBackendBleve)
			return res, nil
		}
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, domainerrors.Validation("invalid cursor")
		}
		s.logger.Warn("search index query failed, falling back to SQL", "query", q.Query, "error", err)
	}

	metrics.RecordSearch(searchBackendSQLLike)
	var (
		page *store.PaginatedResult[*domain.Book]
		err  error
	)
	if q.Query == "" {
		page, err = pageOrError(s.store.ListBooks(ctx, params))
	} else {
		page, err = pageOrError(s.store.SearchBooks(ctx, q.Query, params))
	}
	if err != nil {
		return nil, err
	}
	return &SearchResults{PaginatedResult: page, Backend: searchBackendSQLLike}, nil
}

func (s *BookService) searchIndex(ctx context.Context, q BookSearch, params store.PaginationParams) (*SearchResults, error) {
	offset, err := params.Offset()
	if err != nil {
		return nil, store.ErrInvalidInput.WithMessage(err.Error())
	}

	slugs := make([]string, 0, len(q.Genres))
	for _, g := range q.Genres {
		if slug := genre.Canonical(g); slug != "" {
			slugs = append(slugs, slug)
		}
	}

	sp := search.DefaultSearchParams()
	sp.Query = q.Query
	sp.GenreSlugs = slugs
	sp.MinRating = q.MinRating
	sp.MinYear = q.MinYear
	sp.MaxYear = q.MaxYear
	sp.Limit = params.Limit + 1
	sp.Offset = offset
	sp.Highlight = false
	if q.SortBy != "" {
		sp.SortBy = q.SortBy
	} else if q.Query == "" {
		sp.SortBy = "recent"
	}

	res, err := s.searcher.Search(ctx, sp)
	if err != nil {
		return nil, err
	}

	books, err := s.store.GetBooksByIDs(ctx, res.BookIDs())
	if err != nil {
		return nil, fmt.Errorf("load search hits: %w", err)
	}

	return &SearchResults{
		PaginatedResult: store.NewPage(books, params, offset, int(res.Total)),
		Genres:          res.Facets,
		Backend:         searchBackendBleve,
	}, nil
}

// ListTopRated returns books rated at least minRating (default 3.0).
func (s *BookService) ListTopRated(ctx context.Context, minRating float64, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	if minRating <= 0 {
		minRating = DefaultTopRatedMin
	}
	if minRating > 5 {
		return nil, domainerrors.Validation("min_rating must be at most 5")
	}
	params.Validate()
	return pageOrError(s.store.ListTopRated(ctx, minRating, params))
}

// ListPopular returns books with at least minReviews reviews, most reviewed first.
func (s *BookService) ListPopular(ctx context.Context, minReviews int, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	if minReviews <= 0 {
		minReviews = DefaultPopularMin
	}
	params.Validate()
	return pageOrError(s.store.ListPopular(ctx, minReviews, params))
}

// ListRecent returns the most recently added books.
func (s *BookService) ListRecent(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Book], error) {
	params.Validate()
	return pageOrError(s.store.ListRecent(ctx, params))
}

// SimilarBooks returns books sharing an author or genre with bookID.
func (s *BookService) SimilarBooks(ctx context.Context, bookID int64, limit int) ([]*domain.Book, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	limit = min(limit, MaxSimilarLimit)

	similar, err := s.store.FindSimilar(ctx, book.ID, book.Author, book.Genres, limit)
	if err != nil {
		return nil, fmt.Errorf("find similar: %w", err)
	}
	if similar == nil {
		similar = []*domain.Book{}
	}
	return similar, nil
}

// validateBook normalizes and checks catalog fields in place.
func (s *BookService) validateBook(b *domain.Book) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.Description = normalizeDescription(b.Description)
	b.Genres = genre.Normalize(b.Genres)
	b.CoverImageURL = strings.TrimSpace(b.CoverImageURL)

	switch {
	case b.Title == "":
		return domainerrors.Validation("title is required")
	case b.Author == "":
		return domainerrors.Validation("author is required")
	case utf8.RuneCountInString(b.Title) > domain.MaxTitleLength:
		return domainerrors.Validationf("title must not exceed %d characters", domain.MaxTitleLength)
	case utf8.RuneCountInString(b.Author) > domain.MaxAuthorLength:
		return domainerrors.Validationf("author must not exceed %d characters", domain.MaxAuthorLength)
	case utf8.RuneCountInString(b.Description) > domain.MaxDescriptionLength:
		return domainerrors.Validationf("description must not exceed %d characters", domain.MaxDescriptionLength)
	case utf8.RuneCountInString(b.Genres) > domain.MaxGenresLength:
		return domainerrors.Validationf("genres must not exceed %d characters", domain.MaxGenresLength)
	case utf8.RuneCountInString(b.CoverImageURL) > domain.MaxCoverURLLength:
		return domainerrors.Validationf("cover image URL must not exceed %d characters", domain.MaxCoverURLLength)
	}

	if y := b.PublishedYear; y != 0 && (y < domain.MinPublishedYear || y > domain.MaxPublishedYear(s.now())) {
		return domainerrors.Validationf("published year must be between %d and %d",
			domain.MinPublishedYear, domain.MaxPublishedYear(s.now()))
	}
	return nil
}

// CreateBook adds a catalog entry. Its aggregate starts at zero.
func (s *BookService) CreateBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	book := &domain.Book{
		Title:         in.Title,
		Author:        in.Author,
		Description:   in.Description,
		Genres:        in.Genres,
		PublishedYear: in.PublishedYear,
		CoverImageURL: in.CoverImageURL,
	}
	if err := s.validateBook(book); err != nil {
		return nil, err
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created", "book_id", book.ID, "title", book.Title, "author", book.Author)
	indexed := *book
	s.indexer.Index(&indexed)
	return book, nil
}

// UpdateBook applies a partial update. The aggregate is never writable here.
func (s *BookService) UpdateBook(ctx context.Context, id int64, upd BookUpdate) (*domain.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		book.Title = *upd.Title
	}
	if upd.Author != nil {
		book.Author = *upd.Author
	}
	if upd.Description != nil {
		book.Description = *upd.Description
	}
	if upd.Genres != nil {
		book.Genres = *upd.Genres
	}
	if upd.PublishedYear != nil {
		book.PublishedYear = *upd.PublishedYear
	}
	if upd.CoverImageURL != nil {
		book.CoverImageURL = *upd.CoverImageURL
	}
	if err := s.validateBook(book); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, bookNotFound(id, err)
	}

	s.logger.Info("book updated", "book_id", id)
	s.indexer.Refresh(id)
	return s.GetBook(ctx, id)
}

// DeleteBook removes a book; its reviews and favorites cascade.
func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.store.DeleteBook(ctx, id); err != nil {
		return bookNotFound(id, err)
	}
	s.logger.Info("book deleted", "book_id", id)
	s.indexer.Remove(id)
	return nil
}

// AddFavorite saves a book for a user. Adding it again is a no-op.
func (s *BookService) AddFavorite(ctx context.Context, userID, bookID int64) error {
	if err := s.store.AddFavorite(ctx, userID, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("book %d not found", bookID)
		}
		return fmt.Errorf("add favorite: %w", err)
	}
	s.logger.Debug("favorite added", "user_id", userID, "book_id", bookID)
	return nil
}

// RemoveFavorite unsaves a book and reports whether it was saved.
func (s *BookService) RemoveFavorite(ctx context.Context, userID, bookID int64) (bool, error) {
	removed, err := s.store.RemoveFavorite(ctx, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	return removed, nil
}

// IsFavorite reports whether userID saved bookID.
func (s *BookService) IsFavorite(ctx context.Context, userID, bookID int64) (bool, error) {
	if _, err := s.GetBook(ctx, bookID); err != nil {
		return false, err
	}
	return s.store.IsFavorite(ctx, userID, bookID)
}

// ListFavorites returns a user's saved books in the order they were saved.
func (s *BookService) ListFavorites(ctx context.Context, userID int64) ([]*domain.Book, error) {
	books, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return books, nil
}

// CountBooks returns the catalog size.
func (s *BookService) CountBooks(ctx context.Context) (int, error) {
	return s.store.CountBooks(ctx)
}
