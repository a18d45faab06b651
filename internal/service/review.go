package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// ReviewService orchestrates the review lifecycle. Every mutation persists
// the review and recomputes the book's aggregate in one transaction.
type ReviewService struct {
	store      store.Store
	aggregator *RatingAggregator
	indexer    *CatalogIndexer
	logger     *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, aggregator *RatingAggregator, indexer *CatalogIndexer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:      store,
		aggregator: aggregator,
		indexer:    indexer,
		logger:     logger,
	}
}

// validateReview checks the rating range and trims the text.
func validateReview(rating int, text string) (string, error) {
	if !domain.ValidRating(rating) {
		return "", domainerrors.Validationf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > domain.MaxReviewTextLength {
		return "", domainerrors.Validationf("review text must not exceed %d characters", domain.MaxReviewTextLength)
	}
	return text, nil
}

// CreateReview adds userID's review of bookID.
// Fails with a validation error for a bad rating or text, not found for a
// missing user or book, and conflict if the user already reviewed the book.
func (s *ReviewService) CreateReview(ctx context.Context, userID, bookID int64, rating int, text string) (*domain.Review, error) {
	text, err := validateReview(rating, text)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		UserID:     userID,
		BookID:     bookID,
		Rating:     rating,
		ReviewText: text,
	}

	err = s.store.InTx(ctx, func(tx store.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("user %d not found", userID)
			}
			return fmt.Errorf("get user: %w", err)
		}
		if _, err := tx.GetBook(ctx, bookID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("book %d not found", bookID)
			}
			return fmt.Errorf("get book: %w", err)
		}

		if _, err := tx.GetReviewByUserAndBook(ctx, userID, bookID); err == nil {
			return domainerrors.Conflict("you have already reviewed this book; update your review instead")
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check existing review: %w", err)
		}

		// The unique index is the final arbiter for concurrent creates.
		if err := tx.CreateReview(ctx, review); err != nil {
			switch {
			case errors.Is(err, store.ErrAlreadyExists):
				return domainerrors.Conflict("you have already reviewed this book; update your review instead")
			case errors.Is(err, store.ErrNotFound):
				return domainerrors.NotFound("user or book not found")
			}
			return fmt.Errorf("create review: %w", err)
		}

		_, err := s.aggregator.RecalculateTx(ctx, tx, bookID, TriggerCreate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review created",
		"review_id", review.ID,
		"user_id", userID,
		"book_id", bookID,
		"rating", rating,
	)
	s.indexer.Refresh(bookID)
	return review, nil
}

// loadOwnedReview fetches a review in tx and checks ownership.
func loadOwnedReview(ctx context.Context, tx store.Tx, reviewID, userID int64) (*domain.Review, error) {
	review, err := tx.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("review %d not found", reviewID)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	if !review.OwnedBy(userID) {
		return nil, domainerrors.Forbidden("you can only modify your own reviews")
	}
	return review, nil
}

// UpdateReview changes the rating and text of userID's review.
// Checks run in order: existence, ownership, then validation.
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID int64, rating int, text string) (*domain.Review, error) {
	var review *domain.Review

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		review, err = loadOwnedReview(ctx, tx, reviewID, userID)
		if err != nil {
			return err
		}

		text, err := validateReview(rating, text)
		if err != nil {
			return err
		}

		review.Rating = rating
		review.ReviewText = text
		if err := tx.UpdateReview(ctx, review); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("review %d not found", reviewID)
			}
			return fmt.Errorf("update review: %w", err)
		}

		_, err = s.aggregator.RecalculateTx(ctx, tx, review.BookID, TriggerUpdate)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review updated",
		"review_id", reviewID,
		"user_id", userID,
		"book_id", review.BookID,
		"rating", rating,
	)
	s.indexer.Refresh(review.BookID)
	return review, nil
}

// DeleteReview removes userID's review and recomputes its book.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID int64) error {
	var bookID int64

	err := s.store.InTx(ctx, func(tx store.Tx) error {
		review, err := loadOwnedReview(ctx, tx, reviewID, userID)
		if err != nil {
			return err
		}
		bookID = review.BookID

		if err := tx.DeleteReview(ctx, reviewID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("review %d not found", reviewID)
			}
			return fmt.Errorf("delete review: %w", err)
		}

		_, err = s.aggregator.RecalculateTx(ctx, tx, bookID, TriggerDelete)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("review deleted", "review_id", reviewID, "user_id", userID, "book_id", bookID)
	s.indexer.Refresh(bookID)
	return nil
}

// GetReview returns a review by ID.
func (s *ReviewService) GetReview(ctx context.Context, reviewID int64) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("review %d not found", reviewID)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// ListBookReviews returns a book's reviews, newest first.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID int64, params store.PaginationParams) (*store.PaginatedResult[*domain.Review], error) {
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}
	params.Validate()
	return pageOrError(s.store.ListReviewsByBook(ctx, bookID, params))
}

// ListUserReviews returns a user's reviews, newest first.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID int64, params store.PaginationParams) (*store.PaginatedResult[*domain.Review], error) {
	params.Validate()
	return pageOrError(s.store.ListReviewsByUser(ctx, userID, params))
}

// GetUserReviewForBook returns userID's review of bookID.
func (s *ReviewService) GetUserReviewForBook(ctx context.Context, userID, bookID int64) (*domain.Review, error) {
	review, err := s.store.GetReviewByUserAndBook(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("you have not reviewed this book")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// HasUserReviewed reports whether userID has reviewed bookID.
func (s *ReviewService) HasUserReviewed(ctx context.Context, userID, bookID int64) (bool, error) {
	_, err := s.store.GetReviewByUserAndBook(ctx, userID, bookID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get review: %w", err)
	}
}

// RatingDistribution counts a book's reviews per star value.
func (s *ReviewService) RatingDistribution(ctx context.Context, bookID int64) (*domain.RatingDistribution, error) {
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	counts, err := s.store.RatingCounts(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("rating counts: %w", err)
	}

	dist := domain.NewRatingDistribution(bookID)
	for rating, n := range counts {
		dist.Add(rating, n)
	}
	return dist, nil
}

func (s *ReviewService) requireBook(ctx context.Context, bookID int64) error {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("book %d not found", bookID)
		}
		return fmt.Errorf("get book: %w", err)
	}
	return nil
}

// pageOrError maps a bad cursor to a validation error.
func pageOrError[T any](page *store.PaginatedResult[T], err error) (*store.PaginatedResult[T], error) {
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, domainerrors.Validation("invalid cursor")
		}
		return nil, err
	}
	return page, nil
}
