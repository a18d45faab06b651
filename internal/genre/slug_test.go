package genre

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Science Fiction": "science-fiction",
		"  Fantasy ":      "fantasy",
		"Sci-Fi/Fantasy":  "sci-fi-fantasy",
		"Café Noir":       "cafe-noir",
		"Young -- Adult":  "young-adult",
		"!!!":             "",
		"LitRPG":          "litrpg",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "science-fiction", Canonical("Sci-Fi"))
	assert.Equal(t, "science-fiction", Canonical("Science Fiction"))
	assert.Equal(t, "young-adult", Canonical("YA"))
	assert.Equal(t, "fantasy", Canonical("Fantasy"))
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Nil(t, ParseTags(" , ,"))
	assert.Equal(t,
		[]string{"Fantasy", "Adventure", "Sci-Fi"},
		ParseTags("Fantasy, Adventure,, fantasy ,Sci-Fi, Science Fiction"))
}

func TestSlugs(t *testing.T) {
	assert.Equal(t, []string{"fantasy", "science-fiction"}, Slugs("Fantasy, SF"))
	assert.Empty(t, Slugs(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Mystery, Thriller", Normalize(" Mystery ,Thriller, mystery"))
}
