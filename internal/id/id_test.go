package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("tok")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("tok")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "tok-"))
	// NanoID default is 21 characters.
	assert.Len(t, strings.TrimPrefix(id, "tok-"), 21)
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("req")
	assert.True(t, strings.HasPrefix(id, "req-"))
}

func TestPlaceholderSequence(t *testing.T) {
	var seq PlaceholderSequence

	assert.Equal(t, int64(-1), seq.Next())
	assert.Equal(t, int64(-2), seq.Next())
	assert.Equal(t, int64(-3), seq.Next())

	var fresh PlaceholderSequence
	assert.Equal(t, int64(-1), fresh.Next())
}
