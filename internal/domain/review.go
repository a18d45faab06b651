package domain

import "time"

// Review limits.
const (
	MinRating           = 1
	MaxRating           = 5
	MaxReviewTextLength = 2000
)

// Review is one user's rating of one book. At most one exists per (user, book).
type Review struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	BookID     int64     `json:"book_id"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text,omitempty"`
	UserName   string    `json:"user_name,omitempty"` // filled by listing queries
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidRating reports whether r is an accepted star value.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// RatingText names the review's star value.
func (r *Review) RatingText() string {
	return RatingName(r.Rating)
}

// RatingName names a star value; unknown values yield "Unknown".
func RatingName(rating int) string {
	switch rating {
	case 1:
		return "Poor"
	case 2:
		return "Fair"
	case 3:
		return "Good"
	case 4:
		return "Very Good"
	case 5:
		return "Excellent"
	default:
		return "Unknown"
	}
}

// OwnedBy reports whether the review belongs to userID.
func (r *Review) OwnedBy(userID int64) bool {
	return r.UserID == userID
}
