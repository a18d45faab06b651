package covers

import (
	"fmt"
	"net/url"
)

const (
	maxTitleRunes  = 30
	maxAuthorRunes = 20
)

// PlaceholderURL builds a generated cover showing the title and author,
// used when no real cover can be found.
func PlaceholderURL(title, author string) string {
	return fmt.Sprintf("https://placehold.co/300x400?text=%s%%0A%%0ABy:%s",
		url.QueryEscape(truncate(title, maxTitleRunes)),
		url.QueryEscape(truncate(author, maxAuthorRunes)))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
