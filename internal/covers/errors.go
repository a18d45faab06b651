package covers

import (
	"errors"
	"fmt"
)

// Sentinel errors for cover lookups.
var (
	ErrNotFound    = errors.New("covers: no cover found")
	ErrRateLimited = errors.New("covers: rate limited by server")
	ErrServer      = errors.New("covers: server error")
)

// Error wraps an underlying error with lookup context.
type Error struct {
	Op    string
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("covers %s [%s]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
