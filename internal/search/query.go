package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // User's search query

	// Filters
	GenreSlugs []string // Filter by canonical genre slugs (OR)
	MinYear    int      // Minimum published year
	MaxYear    int      // Maximum published year
	MinRating  float64  // Minimum average rating

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "rating", "title", "recent"
	SortOrder string // "asc", "desc"

	// Options
	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets []FacetCount `json:"genres,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	BookID        int64             `json:"book_id"`
	Score         float64           `json:"score"`
	Title         string            `json:"title"`
	Author        string            `json:"author"`
	AverageRating float64           `json:"average_rating"`
	ReviewCount   int               `json:"review_count"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// BookIDs returns the hit book IDs in rank order.
func (r *SearchResult) BookIDs() []int64 {
	ids := make([]int64, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.BookID
	}
	return ids
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("genre_slugs", bleve.NewFacetRequest("genre_slugs", 20))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("author")
	}

	searchRequest.Fields = []string{"title", "author", "average_rating", "review_count"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		bookID, err := ParseDocID(hit.ID)
		if err != nil {
			s.logger.Warn("skipping search hit with bad id", "id", hit.ID)
			continue
		}
		searchHit := SearchHit{BookID: bookID, Score: hit.Score}

		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}
		if r, ok := hit.Fields["average_rating"].(float64); ok {
			searchHit.AverageRating = r
		}
		if c, ok := hit.Fields["review_count"].(float64); ok {
			searchHit.ReviewCount = int(c)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if facet, ok := searchResult.Facets["genre_slugs"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.Facets = append(result.Facets, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// ResolveTitle finds the catalog book whose title best matches title,
// tolerating one edit per word. A matching author raises the score but is
// not required. Returns false when nothing matches.
func (s *SearchIndex) ResolveTitle(ctx context.Context, title, author string) (int64, bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	titleMatch := bleve.NewMatchQuery(title)
	titleMatch.SetField("title")
	titleMatch.SetFuzziness(1)
	titleMatch.SetOperator(query.MatchQueryOperatorAnd)

	q := bleve.NewBooleanQuery()
	q.AddMust(titleMatch)

	if author = strings.TrimSpace(author); author != "" {
		authorMatch := bleve.NewMatchQuery(author)
		authorMatch.SetField("author")
		authorMatch.SetFuzziness(1)
		authorMatch.SetBoost(2.0)
		q.AddShould(authorMatch)
	}

	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return 0, false, fmt.Errorf("resolve title: %w", err)
	}
	if len(res.Hits) == 0 {
		return 0, false, nil
	}

	bookID, err := ParseDocID(res.Hits[0].ID)
	if err != nil {
		return 0, false, fmt.Errorf("resolve title: %w", err)
	}
	return bookID, true, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)

		genresMatch := bleve.NewMatchQuery(q)
		genresMatch.SetField("genres")

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)

		// Typo tolerance on titles
		fuzzyMatch := bleve.NewMatchQuery(q)
		fuzzyMatch.SetField("title")
		fuzzyMatch.SetFuzziness(1)
		fuzzyMatch.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, authorMatch, genresMatch, descMatch, fuzzyMatch}

		// Prefix for autocomplete (minimum 2 chars)
		if len(q) >= 2 && !strings.Contains(q, " ") {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.GenreSlugs) > 0 {
		genreQueries := make([]query.Query, len(params.GenreSlugs))
		for i, slug := range params.GenreSlugs {
			gq := bleve.NewTermQuery(slug)
			gq.SetField("genre_slugs")
			genreQueries[i] = gq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(genreQueries...))
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		minYear := float64(params.MinYear)
		maxYear := float64(params.MaxYear)
		if params.MaxYear == 0 {
			maxYear = 3000
		}
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&minYear, &maxYear, &inclusive, &inclusive)
		rangeQuery.SetField("published_year")
		queries = append(queries, rangeQuery)
	}

	if params.MinRating > 0 {
		minRating := params.MinRating
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&minRating, nil, &inclusive, nil)
		rangeQuery.SetField("average_rating")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	asc := params.SortOrder == "asc"
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "rating":
		if asc {
			req.SortBy([]string{"average_rating", "review_count"})
		} else {
			req.SortBy([]string{"-average_rating", "-review_count"})
		}
	case "recent":
		if asc {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	default:
		req.SortBy([]string{"-_score"})
	}
}
