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

// FeedbackService records reactions to recommended books. Disliked books
// are left out of later personalized lists.
type FeedbackService struct {
	store  store.Store
	logger *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store store.Store, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{store: store, logger: logger}
}

// SubmitFeedback stores userID's reaction to bookID, replacing any earlier one.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, userID, bookID int64, kind domain.FeedbackKind, reason string) (*domain.RecommendationFeedback, error) {
	if !kind.Valid() {
		return nil, domainerrors.Validation("feedback type must be like or dislike")
	}
	if bookID <= 0 {
		return nil, domainerrors.Validation("feedback is only accepted for catalog books")
	}
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > domain.MaxFeedbackReasonLength {
		return nil, domainerrors.Validationf("reason must not exceed %d characters", domain.MaxFeedbackReasonLength)
	}

	fb := &domain.RecommendationFeedback{
		UserID: userID,
		BookID: bookID,
		Kind:   kind,
		Reason: reason,
	}
	if err := s.store.UpsertFeedback(ctx, fb); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %d not found", bookID)
		}
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	s.logger.Info("recommendation feedback received",
		"user_id", userID,
		"book_id", bookID,
		"kind", kind,
	)
	return fb, nil
}

// GetFeedback returns userID's reaction to bookID.
func (s *FeedbackService) GetFeedback(ctx context.Context, userID, bookID int64) (*domain.RecommendationFeedback, error) {
	fb, err := s.store.GetFeedback(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("no feedback for this book")
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return fb, nil
}
