// Package ai is an OpenAI-compatible chat-completions client that suggests
// books and explains suggestions. Calls are paced by a token bucket and
// guarded by a circuit breaker.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/ratelimit"
)

const (
	limiterKey     = "completions"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// Client is a rate-limited, circuit-broken chat-completions client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	breaker *gobreaker.CircuitBreaker[string]
	cfg     config.AIConfig
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	breaker BreakerSettings
}

// WithBreakerSettings overrides the circuit breaker tuning.
func WithBreakerSettings(s BreakerSettings) Option {
	return func(o *clientOptions) { o.breaker = s }
}

// New creates a new AI client.
func New(cfg config.AIConfig, logger *slog.Logger, opts ...Option) *Client {
	o := clientOptions{breaker: DefaultBreakerSettings()}
	for _, opt := range opts {
		opt(&o)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: ratelimit.New(rps, max(1, int(rps))),
		breaker: newBreaker(o.breaker, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// IsAvailable reports whether an API key is configured.
func (c *Client) IsAvailable() bool {
	return c.cfg.Enabled()
}

// Recommend asks for books similar to favorites ("Title by Author" strings)
// and returns the parsed candidate lines.
func (c *Client) Recommend(ctx context.Context, favorites []string) ([]string, error) {
	if !c.IsAvailable() {
		return nil, wrapError("recommend", ErrUnavailable)
	}

	content, err := c.complete(ctx, "recommend", RecommendationPrompt(favorites))
	if err != nil {
		return nil, wrapError("recommend", err)
	}

	recs := ParseRecommendations(content)
	c.logger.Debug("ai recommendations parsed",
		"favorites", len(favorites),
		"candidates", len(recs),
	)
	return recs, nil
}

// Explain returns a one-sentence reason rec suits favorites. On failure it
// returns the fallback sentence together with the error, so callers can use
// the text either way.
func (c *Client) Explain(ctx context.Context, rec string, favorites []string) (string, error) {
	if !c.IsAvailable() {
		return UnavailableExplanation, nil
	}

	content, err := c.complete(ctx, "explain", ExplanationPrompt(rec, favorites))
	if err != nil {
		return FallbackExplanation(favorites), wrapError("explain", err)
	}
	return strings.TrimSpace(content), nil
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one user prompt through the limiter and breaker.
func (c *Client) complete(ctx context.Context, op, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	content, err := c.breaker.Execute(func() (string, error) {
		return c.doRequest(ctx, prompt)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordAIRequest(op, "rejected", 0)
		return "", ErrCircuitOpen
	case err != nil:
		metrics.RecordAIRequest(op, "failure", time.Since(start))
		return "", err
	}

	metrics.RecordAIRequest(op, "success", time.Since(start))
	return content, nil
}

func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.APIKey))

	c.logger.Debug("ai request", "model", c.cfg.Model)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	case http.StatusBadRequest:
		return "", ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return "", ErrServer
		}
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}
