package api

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/service"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// corruptAggregate overwrites a book's stored aggregate without touching reviews.
func corruptAggregate(t *testing.T, ts *testServer, bookID int64) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, ts.db.InTx(ctx, func(tx store.Tx) error {
		return tx.SetBookAggregate(ctx, bookID, domain.Aggregate{ReviewCount: 9, AverageCents: 100})
	}))
}

func TestVerifyAggregates(t *testing.T) {
	ts := setupTestServer(t)

	_, adminToken := ts.createUser(t, "admin@example.com", true)
	_, readerToken := ts.createUser(t, "reader@example.com", false)
	reviewer, _ := ts.createUser(t, "critic@example.com", false)

	book := ts.createBook(t, "Nostromo", "Joseph Conrad", "Classics")
	ts.createBook(t, "Lord Jim", "Joseph Conrad", "Classics")
	ts.review(t, reviewer.ID, book.ID, 4)

	assert.Equal(t, http.StatusForbidden, ts.api.Post("/api/v1/admin/aggregates/verify", bearer(readerToken)).Code)

	clean := decode[service.VerifyReport](t, ts.api.Post("/api/v1/admin/aggregates/verify", bearer(adminToken))).Data
	assert.Equal(t, 2, clean.BooksChecked)
	assert.Empty(t, clean.Drifted)

	corruptAggregate(t, ts, book.ID)

	resp := ts.api.Post("/api/v1/admin/aggregates/verify", bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	report := decode[service.VerifyReport](t, resp).Data
	require.Len(t, report.Drifted, 1)
	drift := report.Drifted[0]
	assert.Equal(t, book.ID, drift.BookID)
	assert.Equal(t, 9, drift.StoredCount)
	assert.Equal(t, 1, drift.ExpectedCount)
	assert.InDelta(t, 4.0, drift.ExpectedAverage, 1e-9)
	assert.False(t, drift.Repaired)
	assert.Zero(t, report.Repaired)

	resp = ts.api.Post("/api/v1/admin/aggregates/verify?repair=true", bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code)
	repaired := decode[service.VerifyReport](t, resp).Data
	assert.Equal(t, 1, repaired.Repaired)

	got, err := ts.services.Books.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)
}

func TestRecalculateBook(t *testing.T) {
	ts := setupTestServer(t)

	_, adminToken := ts.createUser(t, "admin@example.com", true)
	_, readerToken := ts.createUser(t, "reader@example.com", false)
	a, _ := ts.createUser(t, "a@example.com", false)
	b, _ := ts.createUser(t, "b@example.com", false)

	book := ts.createBook(t, "Emma", "Jane Austen", "")
	ts.review(t, a.ID, book.ID, 5)
	ts.review(t, b.ID, book.ID, 4)
	corruptAggregate(t, ts, book.ID)

	path := "/api/v1/admin/books/" + strconv.FormatInt(book.ID, 10) + "/recalculate"

	assert.Equal(t, http.StatusUnauthorized, ts.api.Post(path).Code)
	assert.Equal(t, http.StatusForbidden, ts.api.Post(path, bearer(readerToken)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Post("/api/v1/admin/books/9999/recalculate", bearer(adminToken)).Code)

	resp := ts.api.Post(path, bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	agg := decode[BookAggregate](t, resp).Data
	assert.Equal(t, book.ID, agg.BookID)
	assert.Equal(t, 2, agg.ReviewCount)
	assert.InDelta(t, 4.5, agg.AverageRating, 1e-9)
}

func TestAdminDeleteUser(t *testing.T) {
	ts := setupTestServer(t)

	admin, adminToken := ts.createUser(t, "admin@example.com", true)
	_, readerToken := ts.createUser(t, "reader@example.com", false)
	leaving, _ := ts.createUser(t, "leaving@example.com", false)
	staying, _ := ts.createUser(t, "staying@example.com", false)

	book := ts.createBook(t, "Kindred", "Octavia E. Butler", "")
	ts.review(t, leaving.ID, book.ID, 1)
	ts.review(t, staying.ID, book.ID, 4)

	path := "/api/v1/admin/users/" + strconv.FormatInt(leaving.ID, 10)

	assert.Equal(t, http.StatusForbidden, ts.api.Delete(path, bearer(readerToken)).Code)

	resp := ts.api.Delete("/api/v1/admin/users/"+strconv.FormatInt(admin.ID, 10), bearer(adminToken))
	require.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", decode[any](t, resp).Code)

	resp = ts.api.Delete(path, bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "User deleted", decode[MessageResponse](t, resp).Data.Message)

	got, err := ts.services.Books.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)

	assert.Equal(t, http.StatusNotFound, ts.api.Delete(path, bearer(adminToken)).Code)
}
