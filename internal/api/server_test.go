package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/service"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/store/sqlite"
)

const testKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

// testEnvelope mirrors the response envelope with a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details"`
}

// testServer wraps the API server with the pieces tests poke at directly.
type testServer struct {
	*Server
	api    humatest.TestAPI
	db     *sqlite.Store
	tokens *auth.TokenService
	ai     *fakeAI
}

// fakeAI is a scripted AI collaborator.
type fakeAI struct {
	mu        sync.Mutex
	available bool
	state     gobreaker.State
	lines     []string
	recErr    error
}

func (f *fakeAI) IsAvailable() bool             { return f.available }
func (f *fakeAI) BreakerState() gobreaker.State { return f.state }

func (f *fakeAI) Recommend(_ context.Context, _ []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines, f.recErr
}

func (f *fakeAI) Explain(_ context.Context, rec string, _ []string) (string, error) {
	return "Readers like you enjoyed " + rec, nil
}

// setupTestServer creates a server over a fresh SQLite database.
func setupTestServer(t *testing.T, modify ...func(*Options)) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testKeyHex, 15*time.Minute)
	require.NoError(t, err)

	fake := &fakeAI{available: true, state: gobreaker.StateClosed}

	indexer := service.NewCatalogIndexer(db, store.NewNoopSearchIndexer(), logger)
	aggregator := service.NewRatingAggregator(db, logger)
	services := &Services{
		Books:           service.NewBookService(db, nil, indexer, logger),
		Reviews:         service.NewReviewService(db, aggregator, indexer, logger),
		Recommendations: service.NewRecommendationService(db, fake, nil, nil, logger),
		Users:           service.NewUserService(db, aggregator, indexer, logger),
		Feedback:        service.NewFeedbackService(db, logger),
		Aggregator:      aggregator,
	}

	opts := Options{AI: fake}
	for _, m := range modify {
		m(&opts)
	}

	s := NewServer(db, services, tokens, opts, logger)

	t.Cleanup(func() {
		indexer.Wait()
		_ = db.Close()
	})

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		db:     db,
		tokens: tokens,
		ai:     fake,
	}
}

// createUser creates a user and returns it with an access token.
func (ts *testServer) createUser(t *testing.T, email string, admin bool) (*domain.User, string) {
	t.Helper()

	user, err := ts.services.Users.CreateUser(context.Background(), email, "User "+email, admin)
	require.NoError(t, err)

	token, err := ts.tokens.GenerateAccessToken(user)
	require.NoError(t, err)

	return user, token
}

func (ts *testServer) createBook(t *testing.T, title, author, genres string) *domain.Book {
	t.Helper()

	book, err := ts.services.Books.CreateBook(context.Background(), service.BookInput{
		Title:  title,
		Author: author,
		Genres: genres,
	})
	require.NoError(t, err)
	return book
}

func (ts *testServer) review(t *testing.T, userID, bookID int64, rating int) *domain.Review {
	t.Helper()

	r, err := ts.services.Reviews.CreateReview(context.Background(), userID, bookID, rating, "")
	require.NoError(t, err)
	return r
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// decode unmarshals an enveloped response body.
func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	return envelope
}
