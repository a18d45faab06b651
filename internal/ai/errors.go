package ai

import (
	"errors"
	"fmt"
)

// Sentinel errors for AI completion operations.
var (
	ErrUnavailable   = errors.New("ai: not configured")
	ErrUnauthorized  = errors.New("ai: unauthorized")
	ErrRateLimited   = errors.New("ai: rate limited by server")
	ErrBadRequest    = errors.New("ai: bad request")
	ErrServer        = errors.New("ai: server error")
	ErrEmptyResponse = errors.New("ai: response has no content")
	ErrCircuitOpen   = errors.New("ai: circuit breaker open")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "recommend", "explain"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, err error) error {
	return &Error{Op: op, Err: err}
}
