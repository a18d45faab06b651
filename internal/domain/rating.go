package domain

import "math"

// Aggregate is the derived (average_rating, review_count) pair of a book.
// The average is kept in hundredths so rounding is exact.
type Aggregate struct {
	ReviewCount  int
	AverageCents int
}

// NewAggregate computes the aggregate of count ratings summing to sum.
// The mean is rounded half-up to two decimals; an empty set averages 0.00.
func NewAggregate(count, sum int) Aggregate {
	if count <= 0 {
		return Aggregate{}
	}
	// round(100*sum/count) half-up == floor((200*sum + count) / (2*count))
	cents := (200*int64(sum) + int64(count)) / (2 * int64(count))
	return Aggregate{ReviewCount: count, AverageCents: int(cents)}
}

// AggregateFromAverage rebuilds an aggregate from a stored two-decimal average.
func AggregateFromAverage(count int, average float64) Aggregate {
	return Aggregate{ReviewCount: count, AverageCents: int(math.Round(average * 100))}
}

// AverageRating returns the rounded mean as a float with two decimals.
func (a Aggregate) AverageRating() float64 {
	return float64(a.AverageCents) / 100
}

// RatingDistribution counts reviews per star value.
type RatingDistribution struct {
	BookID int64       `json:"book_id"`
	Counts map[int]int `json:"counts"` // keyed 1..5, every key present
	Total  int         `json:"total"`
}

// NewRatingDistribution returns a distribution with zero counts for every star.
func NewRatingDistribution(bookID int64) *RatingDistribution {
	counts := make(map[int]int, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		counts[r] = 0
	}
	return &RatingDistribution{BookID: bookID, Counts: counts}
}

// Add records n reviews with the given rating. Out-of-range ratings are ignored.
func (d *RatingDistribution) Add(rating, n int) {
	if rating < MinRating || rating > MaxRating {
		return
	}
	d.Counts[rating] += n
	d.Total += n
}
