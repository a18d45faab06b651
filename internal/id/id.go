// Package id generates opaque identifiers and placeholder book identities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed NanoID, e.g. "tok-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// PlaceholderSequence hands out the negative identities of placeholder books
// within one recommendation list: -1, -2, ...
// Catalog rows always have positive IDs, so the two never collide.
type PlaceholderSequence struct {
	next int64
}

// Next returns the next negative identity.
func (s *PlaceholderSequence) Next() int64 {
	s.next--
	return s.next
}
