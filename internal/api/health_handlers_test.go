package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchStatus struct {
	count uint64
	err   error
}

func (f fakeSearchStatus) DocumentCount() (uint64, error) { return f.count, f.err }

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		search     SearchStatus
		aiOff      bool
		state      gobreaker.State
		wantStatus string
		wantSearch string
		wantAI     string
	}{
		{"all healthy", fakeSearchStatus{count: 12}, false, gobreaker.StateClosed, statusHealthy, statusHealthy, statusHealthy},
		{"search disabled", nil, false, gobreaker.StateClosed, statusDegraded, statusDegraded, statusHealthy},
		{"search empty", fakeSearchStatus{}, false, gobreaker.StateClosed, statusDegraded, statusDegraded, statusHealthy},
		{"search broken", fakeSearchStatus{err: errors.New("closed")}, false, gobreaker.StateClosed, statusDegraded, statusUnhealthy, statusHealthy},
		{"ai not configured", fakeSearchStatus{count: 1}, true, gobreaker.StateClosed, statusDegraded, statusHealthy, statusDegraded},
		{"ai circuit open", fakeSearchStatus{count: 1}, false, gobreaker.StateOpen, statusDegraded, statusHealthy, statusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t, func(o *Options) { o.Search = tt.search })
			ts.ai.available = !tt.aiOff
			ts.ai.state = tt.state

			resp := ts.api.Get("/health")
			require.Equal(t, http.StatusOK, resp.Code)

			envelope := decode[HealthResponse](t, resp)
			assert.True(t, envelope.Success)
			assert.Equal(t, tt.wantStatus, envelope.Data.Status)
			assert.Equal(t, statusHealthy, envelope.Data.Components["database"].Status)
			assert.Equal(t, tt.wantSearch, envelope.Data.Components["search"].Status)
			assert.Equal(t, tt.wantAI, envelope.Data.Components["ai"].Status)
		})
	}
}

func TestHealthCheck_DatabaseDown(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.Search = fakeSearchStatus{count: 1} })
	require.NoError(t, ts.db.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decode[HealthResponse](t, resp)
	assert.Equal(t, statusUnhealthy, envelope.Data.Status)
	assert.Equal(t, statusUnhealthy, envelope.Data.Components["database"].Status)
}
