package api

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBooks_Paginates(t *testing.T) {
	ts := setupTestServer(t)

	for _, title := range []string{"Emma", "Persuasion", "Sanditon"} {
		ts.createBook(t, title, "Jane Austen", "Classics")
	}

	resp := ts.api.Get("/api/v1/books?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	first := decode[BookListResponse](t, resp)
	assert.True(t, first.Success)
	assert.Len(t, first.Data.Books, 2)
	assert.True(t, first.Data.HasMore)
	assert.Equal(t, 3, first.Data.Total)
	require.NotEmpty(t, first.Data.NextCursor)

	resp = ts.api.Get("/api/v1/books?limit=2&cursor=" + first.Data.NextCursor)
	require.Equal(t, http.StatusOK, resp.Code)

	second := decode[BookListResponse](t, resp)
	assert.Len(t, second.Data.Books, 1)
	assert.False(t, second.Data.HasMore)
	assert.Empty(t, second.Data.NextCursor)
}

func TestListBooks_InvalidParams(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"limit above max", "/api/v1/books?limit=500"},
		{"negative limit", "/api/v1/books?limit=-1"},
		{"non numeric book id", "/api/v1/books/abc"},
		{"top rated above five", "/api/v1/books/top-rated?min_rating=6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path)
			assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

			envelope := decode[any](t, resp)
			assert.False(t, envelope.Success)
			assert.Equal(t, "VALIDATION", envelope.Code)
		})
	}
}

func TestGetBook(t *testing.T) {
	ts := setupTestServer(t)

	book := ts.createBook(t, "Middlemarch", "George Eliot", "Classics")
	user, token := ts.createUser(t, "reader@example.com", false)
	ts.review(t, user.ID, book.ID, 4)

	t.Run("anonymous", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/books/" + strconv.FormatInt(book.ID, 10))
		require.Equal(t, http.StatusOK, resp.Code)

		envelope := decode[BookResponse](t, resp)
		assert.Equal(t, "Middlemarch", envelope.Data.Book.Title)
		assert.InDelta(t, 4.0, envelope.Data.Book.AverageRating, 1e-9)
		assert.Equal(t, 1, envelope.Data.Book.ReviewCount)
		assert.Nil(t, envelope.Data.IsFavorite)
		assert.Nil(t, envelope.Data.MyReview)
	})

	t.Run("authenticated", func(t *testing.T) {
		require.NoError(t, ts.services.Books.AddFavorite(context.Background(), user.ID, book.ID))

		resp := ts.api.Get("/api/v1/books/"+strconv.FormatInt(book.ID, 10), bearer(token))
		require.Equal(t, http.StatusOK, resp.Code)

		envelope := decode[BookResponse](t, resp)
		require.NotNil(t, envelope.Data.IsFavorite)
		assert.True(t, *envelope.Data.IsFavorite)
		require.NotNil(t, envelope.Data.MyReview)
		assert.Equal(t, 4, envelope.Data.MyReview.Rating)
	})

	t.Run("missing", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/books/9999")
		require.Equal(t, http.StatusNotFound, resp.Code)

		envelope := decode[any](t, resp)
		assert.False(t, envelope.Success)
		assert.Equal(t, "NOT_FOUND", envelope.Code)
		assert.Equal(t, "book 9999 not found", envelope.Error)
	})
}

func TestCreateBook_RequiresAdmin(t *testing.T) {
	ts := setupTestServer(t)

	_, readerToken := ts.createUser(t, "reader@example.com", false)
	_, adminToken := ts.createUser(t, "admin@example.com", true)

	body := map[string]any{
		"title":          "The Left Hand of Darkness",
		"author":         "Ursula K. Le Guin",
		"genres":         "Science Fiction",
		"published_year": 1969,
		"description":    "<p>An envoy on a <em>frozen</em> world.</p>",
	}

	assert.Equal(t, http.StatusUnauthorized, ts.api.Post("/api/v1/books", body).Code)

	resp := ts.api.Post("/api/v1/books", bearer(readerToken), body)
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decode[any](t, resp).Code)

	resp = ts.api.Post("/api/v1/books", bearer(adminToken), body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	envelope := decode[BookResponse](t, resp)
	assert.True(t, envelope.Success)
	assert.NotZero(t, envelope.Data.Book.ID)
	assert.Equal(t, "An envoy on a *frozen* world.", envelope.Data.Book.Description)
	assert.Zero(t, envelope.Data.Book.ReviewCount)
}

func TestCreateBook_Validation(t *testing.T) {
	ts := setupTestServer(t)
	_, adminToken := ts.createUser(t, "admin@example.com", true)

	t.Run("blank title", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/books", bearer(adminToken), map[string]any{
			"title":  "   ",
			"author": "Someone",
		})
		require.Equal(t, http.StatusBadRequest, resp.Code)

		envelope := decode[map[string]any](t, resp)
		assert.Equal(t, "VALIDATION", envelope.Code)
		details, ok := envelope.Details.(map[string]any)
		require.True(t, ok, "details: %#v", envelope.Details)
		assert.Equal(t, "must not be blank", details["title"])
	})

	t.Run("missing author", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/books", bearer(adminToken), map[string]any{"title": "Untitled"})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
	})

	t.Run("aggregates are not writable", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/books", bearer(adminToken), map[string]any{
			"title":          "Rigged",
			"author":         "Someone",
			"average_rating": 5,
		})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
	})
}

func TestUpdateAndDeleteBook(t *testing.T) {
	ts := setupTestServer(t)

	_, adminToken := ts.createUser(t, "admin@example.com", true)
	reader, readerToken := ts.createUser(t, "reader@example.com", false)
	book := ts.createBook(t, "Dracula", "Bram Stoker", "Horror")
	ts.review(t, reader.ID, book.ID, 5)
	path := "/api/v1/books/" + strconv.FormatInt(book.ID, 10)

	resp := ts.api.Patch(path, bearer(readerToken), map[string]any{"genres": "Gothic"})
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Patch(path, bearer(adminToken), map[string]any{"genres": "Gothic, Horror"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decode[BookResponse](t, resp).Data.Book
	assert.Equal(t, "Dracula", updated.Title)
	assert.Equal(t, "Gothic, Horror", updated.Genres)
	assert.Equal(t, 1, updated.ReviewCount)
	assert.InDelta(t, 5.0, updated.AverageRating, 1e-9)

	resp = ts.api.Delete(path, bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Book deleted", decode[MessageResponse](t, resp).Data.Message)

	assert.Equal(t, http.StatusNotFound, ts.api.Get(path).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete(path, bearer(adminToken)).Code)
}

func TestSearchBooks_SQLFallback(t *testing.T) {
	ts := setupTestServer(t)

	ts.createBook(t, "The Name of the Rose", "Umberto Eco", "Mystery")
	ts.createBook(t, "Foucault's Pendulum", "Umberto Eco", "Mystery")
	ts.createBook(t, "Rebecca", "Daphne du Maurier", "Gothic")

	resp := ts.api.Get("/api/v1/books/search?q=eco")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	envelope := decode[SearchBooksResponse](t, resp)
	assert.Equal(t, "sql", envelope.Data.Backend)
	assert.Equal(t, 2, envelope.Data.Total)
	for _, b := range envelope.Data.Books {
		assert.Equal(t, "Umberto Eco", b.Author)
	}

	resp = ts.api.Get("/api/v1/books/search?q=x&sort=shuffle")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCatalogLists(t *testing.T) {
	ts := setupTestServer(t)

	loved := ts.createBook(t, "Loved", "A", "Fiction")
	liked := ts.createBook(t, "Liked", "B", "Fiction")
	ts.createBook(t, "Unread", "C", "Fiction")

	for i, ratings := range [][2]int{{5, 4}, {5, 3}} {
		u, _ := ts.createUser(t, "u"+strconv.Itoa(i)+"@example.com", false)
		ts.review(t, u.ID, loved.ID, ratings[0])
		ts.review(t, u.ID, liked.ID, ratings[1])
	}

	top := decode[BookListResponse](t, ts.api.Get("/api/v1/books/top-rated?min_rating=4")).Data
	require.Len(t, top.Books, 1)
	assert.Equal(t, loved.ID, top.Books[0].ID)

	popular := decode[BookListResponse](t, ts.api.Get("/api/v1/books/popular")).Data
	require.Len(t, popular.Books, 2)

	recent := decode[BookListResponse](t, ts.api.Get("/api/v1/books/recent")).Data
	assert.Len(t, recent.Books, 3)
}

func TestSimilarBooksAndDistribution(t *testing.T) {
	ts := setupTestServer(t)

	hobbit := ts.createBook(t, "The Hobbit", "J.R.R. Tolkien", "Fantasy")
	silm := ts.createBook(t, "The Silmarillion", "J.R.R. Tolkien", "Mythology")
	ts.createBook(t, "Gone Girl", "Gillian Flynn", "Thriller")

	resp := ts.api.Get("/api/v1/books/" + strconv.FormatInt(hobbit.ID, 10) + "/similar")
	require.Equal(t, http.StatusOK, resp.Code)
	similar := decode[SimilarBooksResponse](t, resp).Data
	require.Len(t, similar.Books, 1)
	assert.Equal(t, silm.ID, similar.Books[0].ID)

	for i, rating := range []int{5, 5, 2} {
		u, _ := ts.createUser(t, "r"+strconv.Itoa(i)+"@example.com", false)
		ts.review(t, u.ID, hobbit.ID, rating)
	}

	resp = ts.api.Get("/api/v1/books/" + strconv.FormatInt(hobbit.ID, 10) + "/rating-distribution")
	require.Equal(t, http.StatusOK, resp.Code)

	dist := decode[RatingDistributionResponse](t, resp).Data
	assert.Equal(t, 3, dist.Total)
	assert.InDelta(t, 4.0, dist.AverageRating, 1e-9)
	require.Len(t, dist.Buckets, 5)
	assert.Equal(t, RatingBucket{Rating: 5, Label: "Excellent", Count: 2}, dist.Buckets[0])
	assert.Equal(t, RatingBucket{Rating: 2, Label: "Fair", Count: 1}, dist.Buckets[3])
	assert.Equal(t, 0, dist.Buckets[4].Count)

	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/v1/books/9999/rating-distribution").Code)
}
