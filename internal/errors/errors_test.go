package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Conflict("you already reviewed this book")

	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("create review: %w", err)
	assert.True(t, Is(wrapped, ErrConflict))
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("bad rating"), http.StatusBadRequest},
		{NotFound("book"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Forbidden("not yours"), http.StatusForbidden},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{ExternalService("openai", io.EOF), http.StatusBadGateway},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{Internal("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestError_WrapKeepsCause(t *testing.T) {
	err := Wrap(io.ErrUnexpectedEOF, CodeInternal, "read books")

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "read books: unexpected EOF", err.Error())
}

func TestError_WithDetails(t *testing.T) {
	base := Validation("validation failed")
	withDetails := base.WithDetails(map[string]string{"rating": "must be between 1 and 5"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, withDetails.Details)
	assert.True(t, Is(withDetails, ErrValidation))
}
