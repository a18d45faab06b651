package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Get personalized recommendations",
		Description: "Returns books similar to the caller's favorites, top books in their genres, then community favorites",
		Tags:        []string{"Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAIRecommendations",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations/ai",
		Summary:     "Get AI recommendations",
		Description: "Returns AI-generated recommendations. Books missing from the catalog are returned as placeholders with negative IDs",
		Tags:        []string{"Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetAIRecommendations)

	huma.Register(s.api, huma.Operation{
		OperationID: "submitRecommendationFeedback",
		Method:      http.MethodPost,
		Path:        "/api/v1/recommendations/{bookId}/feedback",
		Summary:     "Submit recommendation feedback",
		Description: "Records a like or dislike for a recommended book. Disliked books are no longer recommended",
		Tags:        []string{"Recommendations"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubmitFeedback)
}

// === DTOs ===

// RecommendationsInput contains parameters for personalized recommendations.
type RecommendationsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"50" default:"10" doc:"Maximum recommendations"`
}

// AIRecommendationsInput contains parameters for AI recommendations.
type AIRecommendationsInput struct {
	Limit int `query:"limit" minimum:"0" maximum:"10" default:"3" doc:"Maximum recommendations"`
}

// RecommendationsOutput wraps a recommendation list for Huma.
type RecommendationsOutput struct {
	Body domain.RecommendationList
}

// FeedbackRequest is the request body for recommendation feedback.
type FeedbackRequest struct {
	Kind   string `json:"kind" validate:"oneof=like dislike" doc:"like or dislike"`
	Reason string `json:"reason,omitempty" validate:"max=500" doc:"Optional free-text reason"`
}

// FeedbackInput wraps the feedback request for Huma.
type FeedbackInput struct {
	BookID int64 `path:"bookId" doc:"Recommended book ID"`
	Body   FeedbackRequest
}

// FeedbackOutput wraps the stored feedback for Huma.
type FeedbackOutput struct {
	Body domain.RecommendationFeedback
}

// === Handlers ===

func (s *Server) handleGetRecommendations(ctx context.Context, input *RecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Recommendations.GetPersonalizedRecommendations(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RecommendationsOutput{Body: *list}, nil
}

func (s *Server) handleGetAIRecommendations(ctx context.Context, input *AIRecommendationsInput) (*RecommendationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.services.Recommendations.GetAIRecommendations(ctx, userID, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RecommendationsOutput{Body: *list}, nil
}

func (s *Server) handleSubmitFeedback(ctx context.Context, input *FeedbackInput) (*FeedbackOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	fb, err := s.services.Feedback.SubmitFeedback(ctx, userID, input.BookID, domain.FeedbackKind(input.Body.Kind), input.Body.Reason)
	if err != nil {
		return nil, err
	}
	return &FeedbackOutput{Body: *fb}, nil
}
