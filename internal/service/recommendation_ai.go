package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/ai"
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/genre"
	"github.com/bookreviewapp/bookreview-server/internal/id"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// GetAIRecommendations asks the AI collaborator for books matching userID's
// favorites. It never fails because of the collaborator: when AI is not
// configured the list is empty with AIAvailable false, and when a call
// fails the list is empty with a message.
//
// Candidates missing from the catalog become placeholder books with
// negative IDs (-1, -2, ... in list order). Placeholders are never stored.
func (s *RecommendationService) GetAIRecommendations(ctx context.Context, userID int64, limit int) (*domain.RecommendationList, error) {
	start := time.Now()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	if s.ai == nil || !s.ai.IsAvailable() {
		list := s.newList(userID, domain.ListAI, nil)
		list.AIAvailable = boolPtr(false)
		list.Message = messageAIUnavailable
		return list, nil
	}

	if limit <= 0 {
		list := s.newList(userID, domain.ListAI, nil)
		list.AIAvailable = boolPtr(true)
		return list, nil
	}

	favorites, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	var recs []domain.Recommendation
	var aiErr error
	if len(favorites) > 0 {
		recs, aiErr = s.aiFromFavorites(ctx, favorites, limit)
	} else {
		recs, aiErr = s.aiDiscovery(ctx, limit)
	}

	list := s.newList(userID, domain.ListAI, recs)
	list.AIAvailable = boolPtr(true)
	if aiErr != nil {
		s.logger.Warn("ai recommendations failed", "user_id", userID, "error", aiErr)
		list.Message = messageAIFailed
	}

	strategies := make([]string, len(list.Recommendations))
	for i := range strategies {
		strategies[i] = string(domain.StrategyAI)
	}
	metrics.RecordRecommendations(domain.ListAI, strategies, time.Since(start))

	s.logger.Debug("ai recommendations generated",
		"user_id", userID,
		"favorites", len(favorites),
		"count", list.Count,
		"list_id", list.ListID,
	)
	return list, nil
}

// aiFromFavorites resolves AI candidates for a user with favorites.
// The error is non-nil only when the candidate request itself failed.
func (s *RecommendationService) aiFromFavorites(ctx context.Context, favorites []*domain.Book, limit int) ([]domain.Recommendation, error) {
	labels := make([]string, 0, maxAIFavorites)
	for _, fav := range favorites[:min(len(favorites), maxAIFavorites)] {
		labels = append(labels, fav.Label())
	}
	favoriteIDs := make(map[int64]bool, len(favorites))
	for _, fav := range favorites {
		favoriteIDs[fav.ID] = true
	}

	lines, err := s.ai.Recommend(ctx, labels)
	if err != nil {
		return nil, err
	}

	var (
		recs = make([]domain.Recommendation, 0, limit)
		seq  id.PlaceholderSequence
		seen = make(map[string]bool)
		now  = s.now()
	)

	for _, line := range lines {
		if len(recs) >= limit {
			break
		}
		title, author := ai.SplitTitleAuthor(line)
		if title == "" || author == "" || isFavoriteWork(favorites, title, author) {
			continue
		}

		book := s.resolveCandidate(ctx, title, author)
		if book != nil && favoriteIDs[book.ID] {
			continue
		}

		key := workKey(title, author)
		if book != nil {
			key = workKey(book.Title, book.Author)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		if book == nil {
			book = s.placeholder(ctx, &seq, title, author)
		}

		explanation, err := s.ai.Explain(ctx, line, labels)
		if err != nil {
			s.logger.Warn("ai explanation failed", "candidate", line, "error", err)
			if explanation == "" {
				explanation = ai.FallbackExplanation(labels)
			}
		}

		recs = append(recs, domain.Recommendation{
			Book:          book,
			Explanation:   explanation,
			Confidence:    domain.AIConfidence,
			Strategy:      domain.StrategyAI,
			RecommendedAt: now,
		})
	}
	return recs, nil
}

// aiDiscovery suggests popular books in a random genre for a user with no
// favorites. Every candidate becomes a placeholder.
func (s *RecommendationService) aiDiscovery(ctx context.Context, limit int) ([]domain.Recommendation, error) {
	g := s.pickGenre(genre.DiscoveryGenres)
	lines, err := s.ai.Recommend(ctx, []string{"Popular " + g + " books"})
	if err != nil {
		return nil, err
	}

	var (
		recs = make([]domain.Recommendation, 0, limit)
		seq  id.PlaceholderSequence
		seen = make(map[string]bool)
		now  = s.now()
	)

	for _, line := range lines {
		if len(recs) >= limit {
			break
		}
		title, author := ai.SplitTitleAuthor(line)
		if title == "" || author == "" {
			continue
		}
		if key := workKey(title, author); !seen[key] {
			seen[key] = true
			recs = append(recs, domain.Recommendation{
				Book:          s.placeholder(ctx, &seq, title, author),
				Explanation:   explainAIDiscovery,
				Confidence:    domain.AIConfidence,
				Strategy:      domain.StrategyAI,
				RecommendedAt: now,
			})
		}
	}
	return recs, nil
}

// resolveCandidate maps an AI candidate to a catalog book: an exact title or
// author match among the contains-matches first, then the first
// contains-match, then a fuzzy title match from the search index.
// Returns nil when none is found.
func (s *RecommendationService) resolveCandidate(ctx context.Context, title, author string) *domain.Book {
	matches, err := s.store.FindByTitleOrAuthor(ctx, title, author)
	if err != nil {
		s.logger.Warn("catalog lookup for ai candidate failed", "title", title, "author", author, "error", err)
	}
	for _, m := range matches {
		if strings.EqualFold(m.Title, title) || strings.EqualFold(m.Author, author) {
			return m
		}
	}
	if len(matches) > 0 {
		return matches[0]
	}

	if s.resolver == nil {
		return nil
	}
	bookID, ok, err := s.resolver.ResolveTitle(ctx, title, author)
	if err != nil {
		s.logger.Warn("fuzzy title lookup failed", "title", title, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("load fuzzy-matched book failed", "book_id", bookID, "error", err)
		}
		return nil
	}
	return book
}

func (s *RecommendationService) placeholder(ctx context.Context, seq *id.PlaceholderSequence, title, author string) *domain.Book {
	var cover string
	if s.covers != nil {
		cover = s.covers.CoverURL(ctx, title, author)
	}
	return domain.NewPlaceholderBook(seq.Next(), title, author, cover)
}

func isFavoriteWork(favorites []*domain.Book, title, author string) bool {
	for _, fav := range favorites {
		if fav.SameWork(title, author) {
			return true
		}
	}
	return false
}

func workKey(title, author string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(author))
}

func boolPtr(b bool) *bool { return &b }
