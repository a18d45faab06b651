package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
)

func TestFeedbackService_SubmitReplacesEarlier(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	book := env.createBook(t, "Divisive", "Author", "")
	u := env.createUser(t, "u@example.com")

	_, err := env.feedback.SubmitFeedback(ctx, u.ID, book.ID, domain.FeedbackLike, "")
	require.NoError(t, err)

	_, err = env.feedback.SubmitFeedback(ctx, u.ID, book.ID, domain.FeedbackDislike, "  changed my mind ")
	require.NoError(t, err)

	fb, err := env.feedback.GetFeedback(ctx, u.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackDislike, fb.Kind)
	assert.Equal(t, "changed my mind", fb.Reason)

	disliked, err := env.store.ListDislikedBookIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{book.ID}, disliked)
}

func TestFeedbackService_Errors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	book := env.createBook(t, "Book", "Author", "")
	u := env.createUser(t, "u@example.com")

	tests := []struct {
		name   string
		bookID int64
		kind   domain.FeedbackKind
		reason string
		code   domainerrors.Code
	}{
		{"unknown kind", book.ID, domain.FeedbackKind("meh"), "", domainerrors.CodeValidation},
		{"placeholder book", -1, domain.FeedbackLike, "", domainerrors.CodeValidation},
		{"reason too long", book.ID, domain.FeedbackLike, strings.Repeat("r", 501), domainerrors.CodeValidation},
		{"missing book", 9999, domain.FeedbackDislike, "", domainerrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.feedback.SubmitFeedback(ctx, u.ID, tt.bookID, tt.kind, tt.reason)
			requireCode(t, err, tt.code)
		})
	}

	_, err := env.feedback.GetFeedback(ctx, u.ID, book.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}
