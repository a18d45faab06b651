package domain

import "time"

// FeedbackKind is a user's reaction to a recommended book.
type FeedbackKind string

const (
	FeedbackLike    FeedbackKind = "like"
	FeedbackDislike FeedbackKind = "dislike"
)

// Valid reports whether k is a known kind.
func (k FeedbackKind) Valid() bool {
	return k == FeedbackLike || k == FeedbackDislike
}

// MaxFeedbackReasonLength bounds the optional free-text reason.
const MaxFeedbackReasonLength = 500

// RecommendationFeedback records one user's reaction to one book. Disliked
// books are left out of later personalized lists.
type RecommendationFeedback struct {
	UserID    int64        `json:"user_id"`
	BookID    int64        `json:"book_id"`
	Kind      FeedbackKind `json:"kind"`
	Reason    string       `json:"reason,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
