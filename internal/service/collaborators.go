package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// TextGenerator is the AI text collaborator. Implemented by ai.Client.
type TextGenerator interface {
	IsAvailable() bool
	// Recommend returns candidate lines formatted "Title by Author".
	Recommend(ctx context.Context, favorites []string) ([]string, error)
	// Explain returns one sentence on why recommendation suits favorites.
	Explain(ctx context.Context, recommendation string, favorites []string) (string, error)
}

// CoverLookup resolves a cover image URL. It always returns some URL.
// Implemented by covers.Client.
type CoverLookup interface {
	CoverURL(ctx context.Context, title, author string) string
}

// TitleResolver fuzzily matches a title against the catalog.
// Implemented by search.SearchIndex.
type TitleResolver interface {
	ResolveTitle(ctx context.Context, title, author string) (int64, bool, error)
}

// CatalogSearcher runs full-text catalog searches.
// Implemented by search.SearchIndex.
type CatalogSearcher interface {
	Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error)
}

// CatalogIndexer pushes book changes to the search index off the request
// path. Index failures are logged; SQLite stays the source of truth.
type CatalogIndexer struct {
	store   store.Store
	indexer store.SearchIndexer
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewCatalogIndexer creates an indexer; a nil indexer disables indexing.
func NewCatalogIndexer(s store.Store, indexer store.SearchIndexer, logger *slog.Logger) *CatalogIndexer {
	if indexer == nil {
		indexer = store.NewNoopSearchIndexer()
	}
	return &CatalogIndexer{store: s, indexer: indexer, logger: logger}
}

// Refresh re-reads the book and indexes its current state.
func (c *CatalogIndexer) Refresh(bookID int64) {
	c.wg.Go(func() {
		ctx := context.Background()
		book, err := c.store.GetBook(ctx, bookID)
		if err != nil {
			c.logger.Warn("failed to load book for search index", "book_id", bookID, "error", err)
			return
		}
		if err := c.indexer.IndexBook(ctx, book); err != nil {
			c.logger.Warn("failed to index book for search", "book_id", bookID, "error", err)
		}
	})
}

// Index indexes book as given.
func (c *CatalogIndexer) Index(book *domain.Book) {
	c.wg.Go(func() {
		if err := c.indexer.IndexBook(context.Background(), book); err != nil {
			c.logger.Warn("failed to index book for search", "book_id", book.ID, "error", err)
		}
	})
}

// Remove drops a book from the index.
func (c *CatalogIndexer) Remove(bookID int64) {
	c.wg.Go(func() {
		if err := c.indexer.DeleteBook(context.Background(), bookID); err != nil {
			c.logger.Warn("failed to remove book from search index", "book_id", bookID, "error", err)
		}
	})
}

// Wait blocks until queued index updates finish.
func (c *CatalogIndexer) Wait() {
	c.wg.Wait()
}
