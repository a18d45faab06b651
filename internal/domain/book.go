// Package domain contains the core entities of the book review platform.
package domain

import (
	"strings"
	"time"
)

// Catalog field limits.
const (
	MaxTitleLength       = 255
	MaxAuthorLength      = 255
	MaxGenresLength      = 255
	MaxDescriptionLength = 5000
	MaxCoverURLLength    = 500
	MinPublishedYear     = 1000
	// PublishedYearLookahead is how many years past the current one a
	// published year may be (announced titles).
	PublishedYearLookahead = 5
)

// Placeholder books stand in for AI recommendations missing from the catalog.
const (
	PlaceholderGenres      = "Various"
	PlaceholderDescription = "This book was recommended by AI but is not yet in our database."
	PlaceholderCoverURL    = "https://via.placeholder.com/300x450/2C3E50/FFFFFF?text=Book+Cover"
)

// Book is a catalog entry.
//
// AverageRating and ReviewCount are derived from the book's reviews and are
// written only by the rating aggregator.
type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description,omitempty"`
	Genres        string    `json:"genres,omitempty"` // comma-separated tag list
	PublishedYear int       `json:"published_year,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
	Placeholder   bool      `json:"placeholder,omitempty"` // never persisted
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsPlaceholder reports whether b is a synthesized, non-catalog book.
func (b *Book) IsPlaceholder() bool {
	return b.Placeholder || b.ID < 0
}

// Aggregate returns the book's stored rating aggregate.
func (b *Book) Aggregate() Aggregate {
	return AggregateFromAverage(b.ReviewCount, b.AverageRating)
}

// Label formats the book as "Title by Author".
func (b *Book) Label() string {
	return b.Title + " by " + b.Author
}

// SameWork reports whether two books share title and author, ignoring case.
func (b *Book) SameWork(title, author string) bool {
	return strings.EqualFold(strings.TrimSpace(b.Title), strings.TrimSpace(title)) &&
		strings.EqualFold(strings.TrimSpace(b.Author), strings.TrimSpace(author))
}

// Touch updates the UpdatedAt timestamp.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now()
}

// NewPlaceholderBook builds a non-persisted book for an AI recommendation.
// id must be negative.
func NewPlaceholderBook(id int64, title, author, coverURL string) *Book {
	if coverURL == "" {
		coverURL = PlaceholderCoverURL
	}
	return &Book{
		ID:            id,
		Title:         title,
		Author:        author,
		Description:   PlaceholderDescription,
		Genres:        PlaceholderGenres,
		CoverImageURL: coverURL,
		Placeholder:   true,
	}
}

// MaxPublishedYear returns the latest acceptable published year at now.
func MaxPublishedYear(now time.Time) int {
	return now.Year() + PublishedYearLookahead
}
