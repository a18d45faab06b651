package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
)

func TestUserService_CreateUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	u, err := env.users.CreateUser(ctx, "  Reader@Example.COM ", "Reader", false)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", u.Email)
	assert.True(t, u.Active)

	byEmail, err := env.users.GetUserByEmail(ctx, "READER@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = env.users.CreateUser(ctx, "reader@example.com", "Someone Else", false)
	requireCode(t, err, domainerrors.CodeConflict)

	_, err = env.users.CreateUser(ctx, "not-an-email", "Name", false)
	requireCode(t, err, domainerrors.CodeValidation)

	_, err = env.users.CreateUser(ctx, "ok@example.com", "  ", false)
	requireCode(t, err, domainerrors.CodeValidation)

	_, err = env.users.GetUser(ctx, 9999)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestUserService_DeleteUserRecalculatesBooks(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	admin, err := env.users.CreateUser(ctx, "admin@example.com", "Admin", true)
	require.NoError(t, err)
	leaving := env.createUser(t, "leaving@example.com")
	staying := env.createUser(t, "staying@example.com")

	first := env.createBook(t, "First", "A", "")
	second := env.createBook(t, "Second", "B", "")

	for _, step := range []struct {
		user   *domain.User
		book   *domain.Book
		rating int
	}{
		{leaving, first, 1},
		{staying, first, 5},
		{leaving, second, 2},
	} {
		_, err := env.reviews.CreateReview(ctx, step.user.ID, step.book.ID, step.rating, "")
		require.NoError(t, err)
	}
	require.NoError(t, env.books.AddFavorite(ctx, leaving.ID, first.ID))

	assert.InDelta(t, 3.0, env.getBook(t, first.ID).AverageRating, 1e-9)

	requireCode(t, env.users.DeleteUser(ctx, leaving.ID, leaving.ID), domainerrors.CodeForbidden)

	require.NoError(t, env.users.DeleteUser(ctx, admin.ID, leaving.ID))

	got := env.getBook(t, first.ID)
	assert.Equal(t, 1, got.ReviewCount)
	assert.InDelta(t, 5.0, got.AverageRating, 1e-9)

	got = env.getBook(t, second.ID)
	assert.Equal(t, 0, got.ReviewCount)
	assert.Zero(t, got.AverageRating)

	_, err = env.users.GetUser(ctx, leaving.ID)
	requireCode(t, err, domainerrors.CodeNotFound)

	requireCode(t, env.users.DeleteUser(ctx, admin.ID, leaving.ID), domainerrors.CodeNotFound)

	report, err := env.aggregator.Verify(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, report.Drifted)
}
