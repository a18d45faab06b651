package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/ratelimit"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:5000", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:5000", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.10:41234", "192.0.2.10"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"no port", nil, "192.0.2.11", "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestRateLimitMiddleware_RejectsOverBurst(t *testing.T) {
	limiter := ratelimit.New(0.01, 2)
	defer limiter.Stop()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RateLimitMiddleware(limiter, logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	hitsBefore := testutil.ToFloat64(metrics.APIRateLimitHits)

	do := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
		r.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusNoContent, do("192.0.2.1").Code)
	assert.Equal(t, http.StatusNoContent, do("192.0.2.1").Code)

	w := do("192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	envelope := decode[any](t, w)
	assert.False(t, envelope.Success)
	assert.Equal(t, "RATE_LIMITED", envelope.Code)
	assert.Equal(t, EnvelopeVersion, envelope.Version)

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusNoContent, do("192.0.2.2").Code)

	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(metrics.APIRateLimitHits))
}

func TestServer_RateLimitWired(t *testing.T) {
	limiter := ratelimit.New(0.01, 1)
	defer limiter.Stop()

	ts := setupTestServer(t, func(o *Options) { o.Limiter = limiter })

	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/books").Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.api.Get("/api/v1/books").Code)
}

func TestAuthMiddleware_InvalidTokensAreAnonymous(t *testing.T) {
	ts := setupTestServer(t)

	user, _ := ts.createUser(t, "reader@example.com", false)

	expiredTokens, err := auth.NewTokenService(testKeyHex, -time.Minute)
	require.NoError(t, err)
	expired, err := expiredTokens.GenerateAccessToken(user)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"wrong scheme", "Authorization: Basic dXNlcjpwYXNz"},
		{"garbage token", "Authorization: Bearer v4.local.garbage"},
		{"expired token", bearer(expired)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args []any
			if tt.header != "" {
				args = append(args, tt.header)
			}
			resp := ts.api.Get("/api/v1/me/favorites", args...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)

			envelope := decode[any](t, resp)
			assert.False(t, envelope.Success)
			assert.Equal(t, "UNAUTHORIZED", envelope.Code)
		})
	}

	// Optional-auth endpoints still serve anonymous callers.
	assert.Equal(t, http.StatusOK, ts.api.Get("/api/v1/books", "Authorization: Bearer nope").Code)
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	ts := setupTestServer(t)

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/books/{id}", "404")
	before := testutil.ToFloat64(counter)

	resp := ts.api.Get("/api/v1/books/424242")
	require.Equal(t, http.StatusNotFound, resp.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestServer_MetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.api.Get("/api/v1/books")

	resp := ts.api.Get("/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "bookreview_api_requests_total")
}
