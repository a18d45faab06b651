package api

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewsPath(bookID int64) string {
	return "/api/v1/books/" + strconv.FormatInt(bookID, 10) + "/reviews"
}

func reviewPath(reviewID int64) string {
	return "/api/v1/reviews/" + strconv.FormatInt(reviewID, 10)
}

func TestCreateReview_UpdatesAggregate(t *testing.T) {
	ts := setupTestServer(t)

	book := ts.createBook(t, "Beloved", "Toni Morrison", "Literary Fiction")
	_, alice := ts.createUser(t, "alice@example.com", false)
	_, bob := ts.createUser(t, "bob@example.com", false)

	resp := ts.api.Post(reviewsPath(book.ID), bearer(alice), map[string]any{
		"rating":      5,
		"review_text": "  Haunting.  ",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	created := decode[ReviewResponse](t, resp).Data
	assert.Equal(t, "Haunting.", created.Review.ReviewText)
	require.NotNil(t, created.Book)
	assert.Equal(t, 1, created.Book.ReviewCount)
	assert.InDelta(t, 5.0, created.Book.AverageRating, 1e-9)

	resp = ts.api.Post(reviewsPath(book.ID), bearer(bob), map[string]any{"rating": 2})
	require.Equal(t, http.StatusCreated, resp.Code)

	second := decode[ReviewResponse](t, resp).Data
	assert.Equal(t, 2, second.Book.ReviewCount)
	assert.InDelta(t, 3.5, second.Book.AverageRating, 1e-9)

	resp = ts.api.Post(reviewsPath(book.ID), bearer(alice), map[string]any{"rating": 1})
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "CONFLICT", decode[any](t, resp).Code)
}

func TestCreateReview_Errors(t *testing.T) {
	ts := setupTestServer(t)

	book := ts.createBook(t, "Beloved", "Toni Morrison", "")
	_, token := ts.createUser(t, "reader@example.com", false)

	tests := []struct {
		name   string
		path   string
		header string
		body   map[string]any
		status int
		code   string
	}{
		{"anonymous", reviewsPath(book.ID), "", map[string]any{"rating": 4}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rating too high", reviewsPath(book.ID), bearer(token), map[string]any{"rating": 6}, http.StatusBadRequest, "VALIDATION"},
		{"rating zero", reviewsPath(book.ID), bearer(token), map[string]any{"rating": 0}, http.StatusBadRequest, "VALIDATION"},
		{"text too long", reviewsPath(book.ID), bearer(token), map[string]any{"rating": 3, "review_text": strings.Repeat("x", 2001)}, http.StatusBadRequest, "VALIDATION"},
		{"missing rating", reviewsPath(book.ID), bearer(token), map[string]any{"review_text": "no stars"}, http.StatusBadRequest, "VALIDATION"},
		{"missing book", reviewsPath(9999), bearer(token), map[string]any{"rating": 3}, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []any{tt.body}
			if tt.header != "" {
				args = append(args, tt.header)
			}
			resp := ts.api.Post(tt.path, args...)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())

			envelope := decode[any](t, resp)
			assert.False(t, envelope.Success)
			assert.Equal(t, tt.code, envelope.Code)
		})
	}

	got := decode[BookResponse](t, ts.api.Get("/api/v1/books/"+strconv.FormatInt(book.ID, 10))).Data
	assert.Zero(t, got.Book.ReviewCount)
}

func TestUpdateReview(t *testing.T) {
	ts := setupTestServer(t)

	book := ts.createBook(t, "Ulysses", "James Joyce", "")
	owner, ownerToken := ts.createUser(t, "owner@example.com", false)
	_, otherToken := ts.createUser(t, "other@example.com", false)
	r := ts.review(t, owner.ID, book.ID, 3)

	// Ownership is checked before the payload.
	resp := ts.api.Put(reviewPath(r.ID), bearer(otherToken), map[string]any{"rating": 0})
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decode[any](t, resp).Code)

	resp = ts.api.Put(reviewPath(9999), bearer(ownerToken), map[string]any{"rating": 0})
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Put(reviewPath(r.ID), bearer(ownerToken), map[string]any{"rating": 0})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Put(reviewPath(r.ID), bearer(ownerToken), map[string]any{"rating": 5, "review_text": "Better on reread"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decode[ReviewResponse](t, resp).Data
	assert.Equal(t, 5, updated.Review.Rating)
	assert.Equal(t, "Better on reread", updated.Review.ReviewText)
	assert.InDelta(t, 5.0, updated.Book.AverageRating, 1e-9)
	assert.Equal(t, 1, updated.Book.ReviewCount)
}

func TestDeleteReview(t *testing.T) {
	ts := setupTestServer(t)

	book := ts.createBook(t, "Hamlet", "William Shakespeare", "Drama")
	owner, ownerToken := ts.createUser(t, "owner@example.com", false)
	_, otherToken := ts.createUser(t, "other@example.com", false)
	r := ts.review(t, owner.ID, book.ID, 4)

	resp := ts.api.Delete(reviewPath(r.ID), bearer(otherToken))
	require.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete(reviewPath(r.ID), bearer(ownerToken))
	require.Equal(t, http.StatusOK, resp.Code)

	deleted := decode[DeleteReviewResponse](t, resp).Data
	require.NotNil(t, deleted.Book)
	assert.Zero(t, deleted.Book.ReviewCount)
	assert.Zero(t, deleted.Book.AverageRating)

	assert.Equal(t, http.StatusNotFound, ts.api.Delete(reviewPath(r.ID), bearer(ownerToken)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(reviewsPath(book.ID)+"/mine", bearer(ownerToken)).Code)
}

func TestListReviews(t *testing.T) {
	ts := setupTestServer(t)

	book := ts.createBook(t, "Walden", "Henry David Thoreau", "")
	other := ts.createBook(t, "Civil Disobedience", "Henry David Thoreau", "")

	var readerToken string
	for i, rating := range []int{5, 4, 3} {
		u, token := ts.createUser(t, "r"+strconv.Itoa(i)+"@example.com", false)
		ts.review(t, u.ID, book.ID, rating)
		if i == 0 {
			ts.review(t, u.ID, other.ID, 2)
			readerToken = token
		}
	}

	resp := ts.api.Get(reviewsPath(book.ID) + "?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	page := decode[ReviewListResponse](t, resp).Data
	assert.Len(t, page.Reviews, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, 3, page.Total)
	assert.NotEmpty(t, page.Reviews[0].UserName)

	resp = ts.api.Get(reviewsPath(book.ID) + "?cursor=not-a-cursor!")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Equal(t, http.StatusNotFound, ts.api.Get(reviewsPath(9999)).Code)

	mine := decode[ReviewListResponse](t, ts.api.Get("/api/v1/me/reviews", bearer(readerToken))).Data
	assert.Equal(t, 2, mine.Total)

	resp = ts.api.Get(reviewsPath(other.ID)+"/mine", bearer(readerToken))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 2, decode[ReviewResponse](t, resp).Data.Review.Rating)

	assert.Equal(t, http.StatusUnauthorized, ts.api.Get("/api/v1/me/reviews").Code)
}
