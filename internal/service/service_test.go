package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/store/sqlite"
)

type testEnv struct {
	store      *sqlite.Store
	aggregator *RatingAggregator
	indexer    *CatalogIndexer
	reviews    *ReviewService
	books      *BookService
	users      *UserService
	feedback   *FeedbackService
	logger     *slog.Logger
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)

	indexer := NewCatalogIndexer(s, store.NewNoopSearchIndexer(), logger)
	aggregator := NewRatingAggregator(s, logger)

	env := &testEnv{
		store:      s,
		aggregator: aggregator,
		indexer:    indexer,
		reviews:    NewReviewService(s, aggregator, indexer, logger),
		books:      NewBookService(s, nil, indexer, logger),
		users:      NewUserService(s, aggregator, indexer, logger),
		feedback:   NewFeedbackService(s, logger),
		logger:     logger,
	}
	t.Cleanup(func() {
		indexer.Wait()
		_ = s.Close()
	})
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), email, "User "+email, false)
	require.NoError(t, err)
	return u
}

func (e *testEnv) createBook(t *testing.T, title, author, genres string) *domain.Book {
	t.Helper()
	b, err := e.books.CreateBook(context.Background(), BookInput{Title: title, Author: author, Genres: genres})
	require.NoError(t, err)
	return b
}

// setAggregate writes a book's aggregate directly, bypassing reviews.
func (e *testEnv) setAggregate(t *testing.T, bookID int64, count int, average float64) {
	t.Helper()
	err := e.store.InTx(context.Background(), func(tx store.Tx) error {
		return tx.SetBookAggregate(context.Background(), bookID, domain.AggregateFromAverage(count, average))
	})
	require.NoError(t, err)
}

func (e *testEnv) getBook(t *testing.T, id int64) *domain.Book {
	t.Helper()
	b, err := e.store.GetBook(context.Background(), id)
	require.NoError(t, err)
	return b
}

// fakeAI is a scripted TextGenerator.
type fakeAI struct {
	mu         sync.Mutex
	available  bool
	lines      []string
	recErr     error
	explainErr error
	prompts    [][]string
	explained  []string
}

func (f *fakeAI) IsAvailable() bool { return f.available }

func (f *fakeAI) Recommend(_ context.Context, favorites []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, favorites)
	if f.recErr != nil {
		return nil, f.recErr
	}
	return f.lines, nil
}

func (f *fakeAI) Explain(_ context.Context, rec string, _ []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explained = append(f.explained, rec)
	if f.explainErr != nil {
		return "", f.explainErr
	}
	return "Because it matches: " + rec, nil
}

type fakeCovers struct{}

func (fakeCovers) CoverURL(_ context.Context, title, _ string) string {
	return "https://covers.test/" + title
}

type fakeResolver struct {
	matches map[string]int64
}

func (f fakeResolver) ResolveTitle(_ context.Context, title, _ string) (int64, bool, error) {
	id, ok := f.matches[title]
	return id, ok, nil
}
