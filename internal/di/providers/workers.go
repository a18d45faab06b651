package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/ratelimit"
	"github.com/bookreviewapp/bookreview-server/internal/service"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// CatalogIndexerHandle wraps the background search indexer with shutdown capability.
type CatalogIndexerHandle struct {
	*service.CatalogIndexer
}

// Shutdown implements do.Shutdownable. It drains in-flight index updates.
func (h *CatalogIndexerHandle) Shutdown() error {
	h.Wait()
	return nil
}

// ProvideCatalogIndexer provides the indexer that keeps search in step with the catalog.
func ProvideCatalogIndexer(i do.Injector) (*CatalogIndexerHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	var target store.SearchIndexer
	if indexHandle.SearchIndex != nil {
		target = indexHandle.SearchIndex
	}

	indexer := service.NewCatalogIndexer(storeHandle.Store, target, log.Component("indexer"))
	return &CatalogIndexerHandle{CatalogIndexer: indexer}, nil
}

// RateLimiterHandle wraps the inbound API limiter with shutdown capability.
// KeyedRateLimiter is nil when rate limiting is disabled.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.KeyedRateLimiter != nil {
		h.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-client API rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("API rate limiting disabled by configuration")
		return &RateLimiterHandle{}, nil
	}

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	log.Info("API rate limiting enabled",
		"requests_per_second", cfg.RateLimit.RequestsPerSecond,
		"burst", cfg.RateLimit.Burst,
	)

	return &RateLimiterHandle{KeyedRateLimiter: limiter}, nil
}
