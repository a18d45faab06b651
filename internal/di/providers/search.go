package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// SearchIndex is nil when search is disabled or the index failed to open;
// catalog search then falls back to SQL.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.SearchIndex == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled by configuration, using SQL search")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.SearchIndexPath(),
		Logger:   log.Component("search"),
	})
	if err != nil {
		// Non-fatal: SQL search still works.
		log.Warn("Search index unavailable, using SQL search", "error", err)
		return &SearchIndexHandle{}, nil
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index from the catalog in the
// background when configured to, or when the index is empty but books exist.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	index := indexHandle.SearchIndex
	if index == nil {
		return
	}

	docCount, _ := index.DocumentCount()
	if docCount > 0 && !cfg.Search.RebuildOnBoot {
		return
	}

	ctx := context.Background()
	books, err := storeHandle.ListAllBooks(ctx)
	if err != nil {
		log.Warn("Failed to load catalog for search reindex", "error", err)
		return
	}
	if len(books) == 0 {
		return
	}

	log.Info("Triggering search reindex",
		"book_count", len(books),
		"indexed_documents", docCount,
	)

	go func() {
		if err := index.Reindex(books); err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		count, _ := index.DocumentCount()
		log.Info("Search reindex completed", "documents", count)
	}()
}
