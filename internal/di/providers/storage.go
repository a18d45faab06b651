package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/covers"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
)

// CoverCacheHandle wraps the Badger cover cache with shutdown capability.
// Cache is nil when the cache could not be opened.
type CoverCacheHandle struct {
	*covers.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CoverCacheHandle) Shutdown() error {
	if h.Cache == nil {
		return nil
	}
	return h.Close()
}

// ProvideCoverCache provides the on-disk cover URL cache.
func ProvideCoverCache(i do.Injector) (*CoverCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache, err := covers.OpenCache(covers.CacheOptions{
		Path:   cfg.Data.CoverCachePath(),
		TTL:    cfg.Covers.CacheTTL,
		Logger: log.Component("covers"),
	})
	if err != nil {
		// Non-fatal: lookups go straight to Open Library.
		log.Warn("Cover cache unavailable, continuing without it", "error", err)
		return &CoverCacheHandle{}, nil
	}

	return &CoverCacheHandle{Cache: cache}, nil
}
