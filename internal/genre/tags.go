package genre

import "strings"

// DiscoveryGenres seed AI suggestions for users with no favorites yet.
var DiscoveryGenres = []string{"Mystery", "Romance", "Fantasy", "Science Fiction"}

// ParseTags splits a comma-separated genre list into trimmed display tags.
// Empty entries and entries whose canonical slug was already seen are dropped;
// first-seen order is preserved.
func ParseTags(genres string) []string {
	if strings.TrimSpace(genres) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(genres, ",") {
		tag := strings.TrimSpace(part)
		slug := Canonical(tag)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		tags = append(tags, tag)
	}
	return tags
}

// Slugs returns the canonical slugs of a comma-separated genre list.
func Slugs(genres string) []string {
	tags := ParseTags(genres)
	slugs := make([]string, len(tags))
	for i, t := range tags {
		slugs[i] = Canonical(t)
	}
	return slugs
}

// Join formats tags back into the stored comma-separated form.
func Join(tags []string) string {
	return strings.Join(tags, ", ")
}

// Normalize rewrites a raw genre list into its stored form.
func Normalize(genres string) string {
	return Join(ParseTags(genres))
}
