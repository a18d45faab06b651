package store

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Page size bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // items per page (defaults to DefaultPageSize, capped at MaxPageSize)
	Cursor string // opaque cursor for the next page (empty for first page)
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // empty if no more pages
	HasMore    bool   `json:"has_more"`
	Total      int    `json:"total"`
}

// Validate clamps the limit into range.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
}

// Offset decodes the cursor into a row offset.
func (p *PaginationParams) Offset() (int, error) {
	key, err := DecodeCursor(p.Cursor)
	if err != nil || key == "" {
		return 0, err
	}
	offset, err := strconv.Atoi(key)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid cursor: %q", p.Cursor)
	}
	return offset, nil
}

// NewPage builds a result from items fetched with one extra row past the
// limit; the extra row, if present, signals another page.
func NewPage[T any](items []T, p PaginationParams, offset, total int) *PaginatedResult[T] {
	res := &PaginatedResult[T]{Items: items, Total: total}
	if len(items) > p.Limit {
		res.Items = items[:p.Limit]
		res.HasMore = true
		res.NextCursor = EncodeCursor(strconv.Itoa(offset + p.Limit))
	}
	if res.Items == nil {
		res.Items = []T{}
	}
	return res
}

// EncodeCursor creates an opaque cursor from a key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor decodes a cursor back to a key.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("invalid cursor: %w", err)
	}

	return string(decoded), nil
}
