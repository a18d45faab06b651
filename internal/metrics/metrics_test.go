package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200"))

	RecordAPIRequest("GET", "/api/v1/books", "200", 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/books", "200"))
	if after-before != 1 {
		t.Errorf("expected counter to increase by 1, got %v", after-before)
	}
}

func TestRecordRecalculation(t *testing.T) {
	tests := []string{"create", "update", "delete", "user_delete", "admin"}

	for _, trigger := range tests {
		t.Run(trigger, func(t *testing.T) {
			c := AggregateRecalculations.WithLabelValues(trigger)
			before := testutil.ToFloat64(c)
			RecordRecalculation(trigger)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("expected +1 for %s, got %v", trigger, got)
			}
		})
	}
}

func TestRecordRecommendations(t *testing.T) {
	sim := RecommendationsServed.WithLabelValues("genre_similarity")
	top := RecommendationsServed.WithLabelValues("community_favorite")
	simBefore, topBefore := testutil.ToFloat64(sim), testutil.ToFloat64(top)

	RecordRecommendations("personalized", []string{"genre_similarity", "genre_similarity", "community_favorite"}, time.Millisecond)

	if got := testutil.ToFloat64(sim) - simBefore; got != 2 {
		t.Errorf("expected 2 similarity picks, got %v", got)
	}
	if got := testutil.ToFloat64(top) - topBefore; got != 1 {
		t.Errorf("expected 1 community pick, got %v", got)
	}
}

func TestRecordAIRequest_RejectedSkipsDuration(t *testing.T) {
	before := testutil.CollectAndCount(AIRequestDuration)
	RecordAIRequest("recommend", "rejected", time.Second)
	RecordAIRequest("recommend", "success", time.Second)

	// Histograms collect as a single series regardless of observations.
	if after := testutil.CollectAndCount(AIRequestDuration); after != before {
		t.Errorf("unexpected series count change: %d -> %d", before, after)
	}
	if got := testutil.ToFloat64(AIRequestsTotal.WithLabelValues("recommend", "rejected")); got < 1 {
		t.Errorf("expected rejected counter to be recorded, got %v", got)
	}
}

func TestCounters(t *testing.T) {
	c := CoverLookups.WithLabelValues("cache")
	before := testutil.ToFloat64(c)
	RecordCoverLookup("cache")
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("expected +1 cover lookup, got %v", got)
	}

	s := SearchQueries.WithLabelValues("sql")
	before = testutil.ToFloat64(s)
	RecordSearch("sql")
	if got := testutil.ToFloat64(s) - before; got != 1 {
		t.Errorf("expected +1 search, got %v", got)
	}
}

func TestMetricGathering(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint problem in %s: %s", p.Metric, p.Text)
	}
}
