// Package covers resolves book cover image URLs from Open Library, caching
// hits in Badger and falling back to a generated placeholder.
package covers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/ratelimit"
)

const (
	// Rate limit: 1 request per second, burst of 3
	defaultRPS   = 1.0
	defaultBurst = 3

	defaultTimeout = 5 * time.Second
	defaultBaseURL = "https://openlibrary.org"

	coverImageURL = "https://covers.openlibrary.org/b/id/%d-L.jpg"
	limiterKey    = "openlibrary"
)

// Client looks up covers on Open Library.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	cache   *Cache
	baseURL string
	logger  *slog.Logger
}

// New creates a new cover client. cache may be nil.
func New(cfg config.CoversConfig, cache *Cache, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		cache:   cache,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Close releases resources held by the client. The cache is owned by the caller.
func (c *Client) Close() {
	c.limiter.Stop()
}

// CoverURL returns a cover for the book, never empty. Lookup failures are
// logged and answered with a placeholder.
func (c *Client) CoverURL(ctx context.Context, title, author string) string {
	if c.cache != nil {
		if u, ok, err := c.cache.Get(title, author); err != nil {
			c.logger.Warn("cover cache read failed", "title", title, "error", err)
		} else if ok {
			metrics.RecordCoverLookup("cache")
			return u
		}
	}

	u, err := c.Lookup(ctx, title, author)
	if err != nil {
		c.logger.Warn("cover lookup failed, using placeholder",
			"title", title,
			"author", author,
			"error", err,
		)
		metrics.RecordCoverLookup("placeholder")
		return PlaceholderURL(title, author)
	}

	metrics.RecordCoverLookup("openlibrary")
	if c.cache != nil {
		if err := c.cache.Set(title, author, u); err != nil {
			c.logger.Warn("cover cache write failed", "title", title, "error", err)
		}
	}
	return u
}

type searchResponse struct {
	Docs []struct {
		CoverID    int64    `json:"cover_i"`
		Title      string   `json:"title"`
		AuthorName []string `json:"author_name"`
	} `json:"docs"`
}

// Lookup searches Open Library for the first result with a cover.
// Returns ErrNotFound when the top result has none.
func (c *Client) Lookup(ctx context.Context, title, author string) (string, error) {
	query := strings.TrimSpace(title + " " + author)

	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return "", wrapError("search", query, fmt.Errorf("rate limit wait: %w", err))
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("fields", "cover_i,title,author_name")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return "", wrapError("search", query, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "BookReview/1.0")

	c.logger.Debug("searching open library", "query", query)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", wrapError("search", query, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapError("search", query, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", wrapError("search", query, ErrRateLimited)
	case resp.StatusCode >= 500:
		return "", wrapError("search", query, ErrServer)
	default:
		return "", wrapError("search", query, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", wrapError("search", query, fmt.Errorf("parse response: %w", err))
	}
	if len(parsed.Docs) == 0 || parsed.Docs[0].CoverID <= 0 {
		return "", wrapError("search", query, ErrNotFound)
	}

	return fmt.Sprintf(coverImageURL, parsed.Docs[0].CoverID), nil
}
