// Package search provides full-text catalog search using Bleve.
// It backs title/author/genre search and the fuzzy title resolution used
// when matching AI suggestions to catalog books.
package search

import (
	"strconv"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/genre"
)

// BookDocument is the document structure for the Bleve index.
type BookDocument struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description,omitempty"`
	Genres        []string `json:"genres,omitempty"`      // display tags, analyzed
	GenreSlugs    []string `json:"genre_slugs,omitempty"` // canonical slugs, exact match
	PublishedYear int      `json:"published_year,omitempty"`
	AverageRating float64  `json:"average_rating"`
	ReviewCount   int      `json:"review_count"`
	CreatedAt     int64    `json:"created_at"` // Unix millis
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":             d.ID,
		"title":          d.Title,
		"author":         d.Author,
		"average_rating": d.AverageRating,
		"review_count":   d.ReviewCount,
		"created_at":     d.CreatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if len(d.GenreSlugs) > 0 {
		m["genre_slugs"] = d.GenreSlugs
	}
	if d.PublishedYear > 0 {
		m["published_year"] = d.PublishedYear
	}

	return m
}

// BookToDocument converts a domain Book to a BookDocument.
func BookToDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:            DocID(book.ID),
		Title:         book.Title,
		Author:        book.Author,
		Description:   book.Description,
		Genres:        genre.ParseTags(book.Genres),
		GenreSlugs:    genre.Slugs(book.Genres),
		PublishedYear: book.PublishedYear,
		AverageRating: book.AverageRating,
		ReviewCount:   book.ReviewCount,
		CreatedAt:     book.CreatedAt.UnixMilli(),
	}
}

// DocID returns the index document ID for a book.
func DocID(bookID int64) string {
	return strconv.FormatInt(bookID, 10)
}

// ParseDocID reverses DocID.
func ParseDocID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}
