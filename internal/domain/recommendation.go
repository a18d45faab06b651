package domain

import "time"

// Strategy tags which algorithm produced a recommendation.
type Strategy string

const (
	StrategySimilarity Strategy = "genre_similarity"
	StrategyGenreTrend Strategy = "genre_trending"
	StrategyTopRated   Strategy = "community_favorite"
	StrategyAI         Strategy = "ai_powered"
)

// List types.
const (
	ListPersonalized = "personalized"
	ListAI           = "ai_powered"
)

// AIConfidence is the flat score given to AI recommendations.
const AIConfidence = 0.5

// Recommendation is one ranked, explained suggestion.
type Recommendation struct {
	Book          *Book     `json:"book"`
	Explanation   string    `json:"explanation"`
	Confidence    float64   `json:"confidence"`
	Strategy      Strategy  `json:"type"`
	RecommendedAt time.Time `json:"recommended_at"`
}

// RecommendationList is a generated list for one user.
type RecommendationList struct {
	ListID          string           `json:"list_id"`
	UserID          int64            `json:"user_id"`
	Type            string           `json:"type"`
	Recommendations []Recommendation `json:"recommendations"`
	Count           int              `json:"count"`
	RefreshedAt     time.Time        `json:"refreshed_at"`
	// AIAvailable and Message are set on AI lists only.
	AIAvailable *bool  `json:"ai_available,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Confidence scores a recommendation in [0, 1]. It is a heuristic, not a
// probability: quality tiers on rating and review volume plus a strategy bonus.
func Confidence(book *Book, strategy Strategy) float64 {
	if strategy == StrategyAI {
		return AIConfidence
	}

	score := 0.5

	cents := book.Aggregate().AverageCents
	switch {
	case cents >= 450:
		score += 0.3
	case cents >= 400:
		score += 0.2
	case cents >= 350:
		score += 0.1
	}

	switch {
	case book.ReviewCount >= 100:
		score += 0.2
	case book.ReviewCount >= 50:
		score += 0.1
	}

	switch strategy {
	case StrategySimilarity:
		score += 0.1
	case StrategyTopRated:
		score += 0.05
	}

	return min(1, max(0, score))
}
