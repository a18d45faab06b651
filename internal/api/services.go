package api

import (
	"github.com/sony/gobreaker/v2"

	"github.com/bookreviewapp/bookreview-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Books           *service.BookService
	Reviews         *service.ReviewService
	Recommendations *service.RecommendationService
	Users           *service.UserService
	Feedback        *service.FeedbackService
	Aggregator      *service.RatingAggregator
}

// SearchStatus reports the state of the full-text index for health checks.
// Implemented by search.SearchIndex.
type SearchStatus interface {
	DocumentCount() (uint64, error)
}

// AIStatus reports the state of the AI collaborator for health checks.
// Implemented by ai.Client.
type AIStatus interface {
	IsAvailable() bool
	BreakerState() gobreaker.State
}
