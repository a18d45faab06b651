// Package genre parses and normalizes the comma-separated genre tags on books.
package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a tag to its canonical slug.
// "Science Fiction" -> "science-fiction".
// "Café Noir" -> "cafe-noir".
// "Sci-Fi/Fantasy" -> "sci-fi-fantasy".
func Slugify(s string) string {
	// Decompose accents so the base letter survives the ASCII filter.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Canonical returns the slug of tag with common spellings folded together,
// so "Sci-Fi" and "Science Fiction" match.
func Canonical(tag string) string {
	slug := Slugify(tag)
	if c, ok := aliases[slug]; ok {
		return c
	}
	return slug
}

var aliases = map[string]string{
	"sci-fi":               "science-fiction",
	"scifi":                "science-fiction",
	"sf":                   "science-fiction",
	"ya":                   "young-adult",
	"teen":                 "young-adult",
	"mysteries":            "mystery",
	"crime":                "mystery",
	"thrillers":            "thriller",
	"suspense":             "thriller",
	"romances":             "romance",
	"nonfiction":           "non-fiction",
	"biographies":          "biography",
	"memoirs":              "memoir",
	"classic":              "classics",
	"historical":           "historical-fiction",
	"horror-fiction":       "horror",
	"graphic-novels":       "graphic-novel",
	"self-improvement":     "self-help",
	"literary":             "literary-fiction",
	"contemporary-fiction": "contemporary",
}
