package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "List book reviews",
		Description: "Returns a paginated list of a book's reviews, newest first",
		Tags:        []string{"Reviews"},
	}, s.handleListBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createReview",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{id}/reviews",
		Summary:       "Create review",
		Description:   "Reviews a book. Each user may review a book once",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyBookReview",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews/mine",
		Summary:     "Get my review",
		Description: "Returns the caller's review of a book",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyBookReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPut,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Update review",
		Description: "Replaces the rating and text of the caller's review",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reviews/{id}",
		Summary:     "Delete review",
		Description: "Deletes the caller's review",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/reviews",
		Summary:     "List my reviews",
		Description: "Returns a paginated list of the caller's reviews, newest first",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyReviews)
}

// === DTOs ===

// ListBookReviewsInput contains parameters for listing a book's reviews.
type ListBookReviewsInput struct {
	ID int64 `path:"id" doc:"Book ID"`
	PageQuery
}

// ReviewRequest is the request body for creating or replacing a review.
// Range checks happen in the review service so that ownership is checked first on update.
type ReviewRequest struct {
	Rating     int    `json:"rating" doc:"Star rating, 1 to 5"`
	ReviewText string `json:"review_text,omitempty" doc:"Optional review text, at most 2000 characters"`
}

// CreateReviewInput wraps the create review request for Huma.
type CreateReviewInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Body ReviewRequest
}

// UpdateReviewInput wraps the update review request for Huma.
type UpdateReviewInput struct {
	ID   int64 `path:"id" doc:"Review ID"`
	Body ReviewRequest
}

// ReviewIDInput identifies a review by path.
type ReviewIDInput struct {
	ID int64 `path:"id" doc:"Review ID"`
}

// BookAggregate is a book's rating aggregate as of the response.
type BookAggregate struct {
	BookID        int64   `json:"book_id" doc:"Book ID"`
	AverageRating float64 `json:"average_rating" doc:"Mean rating rounded half-up to 2 decimals"`
	ReviewCount   int     `json:"review_count" doc:"Number of reviews"`
}

// ReviewResponse contains a review and the resulting book aggregate.
type ReviewResponse struct {
	Review *domain.Review `json:"review" doc:"The review"`
	Book   *BookAggregate `json:"book,omitempty" doc:"The reviewed book's aggregate after the change"`
}

// ReviewOutput wraps the review response for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

// DeleteReviewResponse reports the book aggregate after a review was removed.
type DeleteReviewResponse struct {
	Message string         `json:"message" doc:"Outcome of the operation"`
	Book    *BookAggregate `json:"book,omitempty" doc:"The reviewed book's aggregate after the change"`
}

// DeleteReviewOutput wraps the delete review response for Huma.
type DeleteReviewOutput struct {
	Body DeleteReviewResponse
}

// === Handlers ===

func (s *Server) handleListBookReviews(ctx context.Context, input *ListBookReviewsInput) (*ReviewListOutput, error) {
	page, err := s.services.Reviews.ListBookReviews(ctx, input.ID, input.params())
	if err != nil {
		return nil, err
	}
	return reviewListOutput(page), nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.CreateReview(ctx, userID, input.ID, input.Body.Rating, input.Body.ReviewText)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: ReviewResponse{
		Review: review,
		Book:   s.bookAggregate(ctx, review.BookID),
	}}, nil
}

func (s *Server) handleGetMyBookReview(ctx context.Context, input *BookIDInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.GetUserReviewForBook(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: ReviewResponse{Review: review}}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Reviews.UpdateReview(ctx, input.ID, userID, input.Body.Rating, input.Body.ReviewText)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: ReviewResponse{
		Review: review,
		Book:   s.bookAggregate(ctx, review.BookID),
	}}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *ReviewIDInput) (*DeleteReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// Load first so the response can carry the book's new aggregate.
	// The service re-checks existence and ownership inside its transaction.
	review, err := s.services.Reviews.GetReview(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Reviews.DeleteReview(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &DeleteReviewOutput{Body: DeleteReviewResponse{
		Message: "Review deleted",
		Book:    s.bookAggregate(ctx, review.BookID),
	}}, nil
}

func (s *Server) handleListMyReviews(ctx context.Context, input *ListBooksInput) (*ReviewListOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Reviews.ListUserReviews(ctx, userID, input.params())
	if err != nil {
		return nil, err
	}
	return reviewListOutput(page), nil
}

// bookAggregate reads a book's committed aggregate. The mutation has already
// succeeded, so a failed read only drops the field from the response.
func (s *Server) bookAggregate(ctx context.Context, bookID int64) *BookAggregate {
	book, err := s.services.Books.GetBook(ctx, bookID)
	if err != nil {
		s.logger.Warn("Failed to load book aggregate", "book_id", bookID, "error", err)
		return nil
	}
	return &BookAggregate{
		BookID:        book.ID,
		AverageRating: book.AverageRating,
		ReviewCount:   book.ReviewCount,
	}
}
