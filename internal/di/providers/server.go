package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/api"
	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	aiHandle := do.MustInvoke[*AIClientHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Books:           do.MustInvoke[*service.BookService](i),
		Reviews:         do.MustInvoke[*service.ReviewService](i),
		Recommendations: do.MustInvoke[*service.RecommendationService](i),
		Users:           do.MustInvoke[*service.UserService](i),
		Feedback:        do.MustInvoke[*service.FeedbackService](i),
		Aggregator:      do.MustInvoke[*service.RatingAggregator](i),
	}

	opts := api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Limiter:     limiterHandle.KeyedRateLimiter,
		AI:          aiHandle.Client,
	}
	if indexHandle.SearchIndex != nil {
		opts.Search = indexHandle.SearchIndex
	}

	handler := api.NewServer(storeHandle.Store, services, tokens, opts, log.Component("api"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
