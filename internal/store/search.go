package store

import (
	"context"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

// SearchIndexer keeps the catalog search index in step with book writes.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID int64) error
}

// NoopSearchIndexer is a no-op implementation for testing and for
// deployments with search disabled.
type NoopSearchIndexer struct{}

func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }
func (NoopSearchIndexer) DeleteBook(context.Context, int64) error       { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
