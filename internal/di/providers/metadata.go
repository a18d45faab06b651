package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/ai"
	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/covers"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
)

// CoverClientHandle wraps the Open Library client with shutdown capability.
type CoverClientHandle struct {
	*covers.Client
}

// Shutdown implements do.Shutdownable.
func (h *CoverClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideCoverClient provides the Open Library cover client.
func ProvideCoverClient(i do.Injector) (*CoverClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*CoverCacheHandle](i)

	client := covers.New(cfg.Covers, cacheHandle.Cache, log.Component("covers"))
	log.Info("Cover client initialized",
		"base_url", cfg.Covers.BaseURL,
		"cached", cacheHandle.Cache != nil,
	)

	return &CoverClientHandle{Client: client}, nil
}

// AIClientHandle wraps the AI client with shutdown capability.
type AIClientHandle struct {
	*ai.Client
}

// Shutdown implements do.Shutdownable.
func (h *AIClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideAIClient provides the chat-completions client. Without an API key
// the client reports itself unavailable and AI recommendations are empty.
func ProvideAIClient(i do.Injector) (*AIClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := ai.New(cfg.AI, log.Component("ai"))

	if client.IsAvailable() {
		log.Info("AI client initialized", "model", cfg.AI.Model, "base_url", cfg.AI.BaseURL)
	} else {
		log.Warn("AI recommendations disabled: no API key configured")
	}

	return &AIClientHandle{Client: client}, nil
}
