package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a paginated list of the catalog, newest first",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over title, author, description and genres with optional filters",
		Tags:        []string{"Books"},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTopRatedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/top-rated",
		Summary:     "List top rated books",
		Description: "Returns books at or above a minimum average rating, best first",
		Tags:        []string{"Books"},
	}, s.handleListTopRated)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPopularBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/popular",
		Summary:     "List popular books",
		Description: "Returns the most reviewed books",
		Tags:        []string{"Books"},
	}, s.handleListPopular)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRecentBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/recent",
		Summary:     "List recent books",
		Description: "Returns the most recently added books",
		Tags:        []string{"Books"},
	}, s.handleListRecent)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its rating aggregate. Authenticated callers also get their favorite flag and review",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSimilarBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/similar",
		Summary:     "Get similar books",
		Description: "Returns books that share an author or a genre with the book",
		Tags:        []string{"Books"},
	}, s.handleSimilarBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRatingDistribution",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/rating-distribution",
		Summary:     "Get rating distribution",
		Description: "Returns the number of reviews per star value",
		Tags:        []string{"Books"},
	}, s.handleRatingDistribution)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book to the catalog (admin only)",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates catalog fields of a book (admin only). Rating aggregates are not writable",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a book with its reviews and favorites (admin only)",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)
}

// === DTOs ===

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	PageQuery
}

// SearchBooksInput contains parameters for searching books.
type SearchBooksInput struct {
	PageQuery
	Query     string   `query:"q" maxLength:"200" doc:"Search text; empty lists the filtered catalog"`
	Genres    []string `query:"genres" doc:"Genre names or slugs, comma separated"`
	MinRating float64  `query:"min_rating" minimum:"0" maximum:"5" doc:"Minimum average rating"`
	MinYear   int      `query:"min_year" minimum:"0" doc:"Earliest publication year"`
	MaxYear   int      `query:"max_year" minimum:"0" doc:"Latest publication year"`
	Sort      string   `query:"sort" enum:"relevance,rating,title,recent" doc:"Sort order"`
}

// SearchBooksResponse is a page of search results.
type SearchBooksResponse struct {
	BookListResponse
	Genres  []search.FacetCount `json:"genres,omitempty" doc:"Genre facet counts for the whole result set"`
	Backend string              `json:"backend" doc:"Backend that served the query: bleve or sql"`
}

// SearchBooksOutput wraps the search response for Huma.
type SearchBooksOutput struct {
	Body SearchBooksResponse
}

// TopRatedInput contains parameters for the top rated list.
type TopRatedInput struct {
	PageQuery
	MinRating float64 `query:"min_rating" minimum:"0" doc:"Minimum average rating (default 3.0)"`
}

// PopularInput contains parameters for the popular list.
type PopularInput struct {
	PageQuery
	MinReviews int `query:"min_reviews" minimum:"0" doc:"Minimum number of reviews (default 1)"`
}

// BookIDInput identifies a book by path.
type BookIDInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// BookResponse contains a book and the caller's relation to it.
type BookResponse struct {
	Book       *domain.Book   `json:"book" doc:"The book"`
	IsFavorite *bool          `json:"is_favorite,omitempty" doc:"Whether the caller favorited the book (authenticated only)"`
	MyReview   *domain.Review `json:"my_review,omitempty" doc:"The caller's review of the book, if any"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// SimilarBooksInput contains parameters for similar books.
type SimilarBooksInput struct {
	ID    int64 `path:"id" doc:"Book ID"`
	Limit int   `query:"limit" minimum:"0" maximum:"50" doc:"Maximum books to return (default 10)"`
}

// SimilarBooksResponse lists books related to a book.
type SimilarBooksResponse struct {
	BookID int64          `json:"book_id" doc:"The book the list is for"`
	Books  []*domain.Book `json:"books" doc:"Related books"`
}

// SimilarBooksOutput wraps the similar books response for Huma.
type SimilarBooksOutput struct {
	Body SimilarBooksResponse
}

// RatingBucket is the number of reviews for one star value.
type RatingBucket struct {
	Rating int    `json:"rating" doc:"Star value, 1 to 5"`
	Label  string `json:"label" doc:"Display name of the star value"`
	Count  int    `json:"count" doc:"Number of reviews"`
}

// RatingDistributionResponse contains the per-star counts of a book.
type RatingDistributionResponse struct {
	BookID        int64          `json:"book_id" doc:"Book ID"`
	AverageRating float64        `json:"average_rating" doc:"Stored average rating"`
	Total         int            `json:"total" doc:"Number of reviews"`
	Buckets       []RatingBucket `json:"buckets" doc:"Counts for every star value, 5 first"`
}

// RatingDistributionOutput wraps the distribution for Huma.
type RatingDistributionOutput struct {
	Body RatingDistributionResponse
}

// CreateBookRequest is the request body for creating a book.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"notblank,max=255" doc:"Book title"`
	Author        string `json:"author" validate:"notblank,max=255" doc:"Author name"`
	Description   string `json:"description,omitempty" validate:"max=5000" doc:"Description; HTML is converted to Markdown"`
	Genres        string `json:"genres,omitempty" validate:"max=255" doc:"Comma separated genres"`
	PublishedYear int    `json:"published_year,omitempty" validate:"pubyear" doc:"Year of publication"`
	CoverImageURL string `json:"cover_image_url,omitempty" validate:"omitempty,max=500,url" doc:"Cover image URL"`
}

// CreateBookInput wraps the create book request for Huma.
type CreateBookInput struct {
	Body CreateBookRequest
}

// UpdateBookRequest is the request body for updating a book.
// Uses pointer fields for PATCH semantics - only provided fields are updated.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,notblank,max=255" doc:"Book title"`
	Author        *string `json:"author,omitempty" validate:"omitempty,notblank,max=255" doc:"Author name"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Description"`
	Genres        *string `json:"genres,omitempty" validate:"omitempty,max=255" doc:"Comma separated genres"`
	PublishedYear *int    `json:"published_year,omitempty" validate:"omitempty,pubyear" doc:"Year of publication"`
	CoverImageURL *string `json:"cover_image_url,omitempty" validate:"omitempty,max=500" doc:"Cover image URL"`
}

// UpdateBookInput wraps the update book request for Huma.
type UpdateBookInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	page, err := s.services.Books.ListBooks(ctx, input.params())
	if err != nil {
		return nil, err
	}
	return bookListOutput(page), nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	res, err := s.services.Books.SearchBooks(ctx, service.BookSearch{
		Query:     input.Query,
		Genres:    input.Genres,
		MinRating: input.MinRating,
		MinYear:   input.MinYear,
		MaxYear:   input.MaxYear,
		SortBy:    input.Sort,
	}, input.params())
	if err != nil {
		return nil, err
	}

	return &SearchBooksOutput{Body: SearchBooksResponse{
		BookListResponse: bookListOutput(res.PaginatedResult).Body,
		Genres:           res.Genres,
		Backend:          res.Backend,
	}}, nil
}

func (s *Server) handleListTopRated(ctx context.Context, input *TopRatedInput) (*BookListOutput, error) {
	page, err := s.services.Books.ListTopRated(ctx, input.MinRating, input.params())
	if err != nil {
		return nil, err
	}
	return bookListOutput(page), nil
}

func (s *Server) handleListPopular(ctx context.Context, input *PopularInput) (*BookListOutput, error) {
	page, err := s.services.Books.ListPopular(ctx, input.MinReviews, input.params())
	if err != nil {
		return nil, err
	}
	return bookListOutput(page), nil
}

func (s *Server) handleListRecent(ctx context.Context, input *ListBooksInput) (*BookListOutput, error) {
	page, err := s.services.Books.ListRecent(ctx, input.params())
	if err != nil {
		return nil, err
	}
	return bookListOutput(page), nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := BookResponse{Book: book}

	// Anonymous callers just get the book.
	if userID, err := GetUserID(ctx); err == nil {
		fav, err := s.services.Books.IsFavorite(ctx, userID, book.ID)
		if err != nil {
			return nil, err
		}
		resp.IsFavorite = &fav

		review, err := s.services.Reviews.GetUserReviewForBook(ctx, userID, book.ID)
		if err == nil {
			resp.MyReview = review
		}
	}

	return &BookOutput{Body: resp}, nil
}

func (s *Server) handleSimilarBooks(ctx context.Context, input *SimilarBooksInput) (*SimilarBooksOutput, error) {
	books, err := s.services.Books.SimilarBooks(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SimilarBooksOutput{Body: SimilarBooksResponse{BookID: input.ID, Books: books}}, nil
}

func (s *Server) handleRatingDistribution(ctx context.Context, input *BookIDInput) (*RatingDistributionOutput, error) {
	book, err := s.services.Books.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	dist, err := s.services.Reviews.RatingDistribution(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	buckets := make([]RatingBucket, 0, domain.MaxRating)
	for r := domain.MaxRating; r >= domain.MinRating; r-- {
		buckets = append(buckets, RatingBucket{
			Rating: r,
			Label:  domain.RatingName(r),
			Count:  dist.Counts[r],
		})
	}

	return &RatingDistributionOutput{Body: RatingDistributionResponse{
		BookID:        dist.BookID,
		AverageRating: book.AverageRating,
		Total:         dist.Total,
		Buckets:       buckets,
	}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Books.CreateBook(ctx, service.BookInput{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Description:   input.Body.Description,
		Genres:        input.Body.Genres,
		PublishedYear: input.Body.PublishedYear,
		CoverImageURL: input.Body.CoverImageURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: BookResponse{Book: book}}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	book, err := s.services.Books.UpdateBook(ctx, input.ID, service.BookUpdate{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Description:   input.Body.Description,
		Genres:        input.Body.Genres,
		PublishedYear: input.Body.PublishedYear,
		CoverImageURL: input.Body.CoverImageURL,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: BookResponse{Book: book}}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Books.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}

	return messageOutput("Book deleted"), nil
}
