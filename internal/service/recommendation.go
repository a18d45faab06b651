package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/genre"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// Recommendation tuning.
const (
	similarPerFavorite = 3
	booksPerGenre      = 2
	communityMinRating = 4.0
	maxAIFavorites     = 5
)

// Explanations attached to rule-based and AI recommendations.
const (
	explainSimilar     = "Similar to your favorite: "
	explainGenre       = "Highly rated in "
	explainCommunity   = "Top rated by the community"
	explainAIDiscovery = "AI-recommended popular book in this genre"

	messageAIUnavailable = "AI recommendations are not available"
	messageAIFailed      = "AI recommendations are temporarily unavailable, please try again later"
)

// RecommendationService produces ranked, explained book suggestions.
//
// Personalized lists use three rule-based strategies in priority order:
// books similar to each favorite, top books in the favorites' genres and
// the community's top rated. AI lists come from a separate entry point and
// are best effort: collaborator failures degrade to an empty list.
type RecommendationService struct {
	store    store.Store
	ai       TextGenerator
	covers   CoverLookup
	resolver TitleResolver
	logger   *slog.Logger

	now       func() time.Time
	pickGenre func(genres []string) string
}

// NewRecommendationService creates a new recommendation service.
// ai, covers and resolver may be nil.
func NewRecommendationService(
	store store.Store,
	ai TextGenerator,
	covers CoverLookup,
	resolver TitleResolver,
	logger *slog.Logger,
) *RecommendationService {
	return &RecommendationService{
		store:    store,
		ai:       ai,
		covers:   covers,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		pickGenre: func(genres []string) string {
			return genres[rand.IntN(len(genres))]
		},
	}
}

// picker accumulates a list while enforcing the exclusion rules.
type picker struct {
	limit    int
	excluded map[int64]bool
	chosen   map[int64]bool
	recs     []domain.Recommendation
	now      time.Time
}

func newPicker(limit int, now time.Time, excluded ...[]int64) *picker {
	p := &picker{
		limit:    limit,
		excluded: make(map[int64]bool),
		chosen:   make(map[int64]bool),
		recs:     make([]domain.Recommendation, 0, limit),
		now:      now,
	}
	for _, ids := range excluded {
		for _, id := range ids {
			p.excluded[id] = true
		}
	}
	return p
}

func (p *picker) full() bool { return len(p.recs) >= p.limit }

// eligible reports whether book may still be added.
func (p *picker) eligible(book *domain.Book) bool {
	return !p.full() && !p.excluded[book.ID] && !p.chosen[book.ID]
}

func (p *picker) add(book *domain.Book, explanation string, strategy domain.Strategy) {
	p.chosen[book.ID] = true
	p.recs = append(p.recs, domain.Recommendation{
		Book:          book,
		Explanation:   explanation,
		Confidence:    domain.Confidence(book, strategy),
		Strategy:      strategy,
		RecommendedAt: p.now,
	})
}

func (p *picker) strategies() []string {
	out := make([]string, len(p.recs))
	for i, r := range p.recs {
		out[i] = string(r.Strategy)
	}
	return out
}

func (s *RecommendationService) newList(userID int64, listType string, recs []domain.Recommendation) *domain.RecommendationList {
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return &domain.RecommendationList{
		ListID:          uuid.NewString(),
		UserID:          userID,
		Type:            listType,
		Recommendations: recs,
		Count:           len(recs),
		RefreshedAt:     s.now(),
	}
}

func (s *RecommendationService) requireUser(ctx context.Context, userID int64) error {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("user %d not found", userID)
		}
		return fmt.Errorf("get user: %w", err)
	}
	return nil
}

// GetPersonalizedRecommendations returns up to limit books for userID,
// never repeating a favorite, a disliked book or an earlier pick.
func (s *RecommendationService) GetPersonalizedRecommendations(ctx context.Context, userID int64, limit int) (*domain.RecommendationList, error) {
	start := time.Now()

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return s.newList(userID, domain.ListPersonalized, nil), nil
	}

	favorites, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	disliked, err := s.store.ListDislikedBookIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list disliked books: %w", err)
	}

	p := newPicker(limit, s.now(), bookIDsOf(favorites), disliked)

	if err := s.addSimilar(ctx, p, favorites); err != nil {
		return nil, err
	}
	if err := s.addGenreTrending(ctx, p, favorites); err != nil {
		return nil, err
	}
	if err := s.addCommunityFavorites(ctx, p); err != nil {
		return nil, err
	}

	list := s.newList(userID, domain.ListPersonalized, p.recs)
	metrics.RecordRecommendations(domain.ListPersonalized, p.strategies(), time.Since(start))
	s.logger.Debug("personalized recommendations generated",
		"user_id", userID,
		"favorites", len(favorites),
		"count", list.Count,
		"list_id", list.ListID,
	)
	return list, nil
}

// addSimilar picks books sharing an author or genre with each favorite,
// up to about half the list.
func (s *RecommendationService) addSimilar(ctx context.Context, p *picker, favorites []*domain.Book) error {
	budget := max(1, p.limit/2)
	picked := 0

	for _, fav := range favorites {
		if picked >= budget || p.full() {
			return nil
		}
		similar, err := s.store.FindSimilar(ctx, fav.ID, fav.Author, fav.Genres, similarPerFavorite)
		if err != nil {
			return fmt.Errorf("find similar to %d: %w", fav.ID, err)
		}
		for _, book := range similar {
			if picked >= budget {
				break
			}
			if !p.eligible(book) {
				continue
			}
			p.add(book, explainSimilar+fav.Title, domain.StrategySimilarity)
			picked++
		}
	}
	return nil
}

// addGenreTrending picks the top books of each genre across the favorites.
func (s *RecommendationService) addGenreTrending(ctx context.Context, p *picker, favorites []*domain.Book) error {
	for _, tag := range favoriteGenres(favorites) {
		if p.full() {
			return nil
		}
		books, err := s.store.FindByGenre(ctx, tag, booksPerGenre)
		if err != nil {
			return fmt.Errorf("find by genre %q: %w", tag, err)
		}
		for _, book := range books {
			if p.eligible(book) {
				p.add(book, explainGenre+tag, domain.StrategyGenreTrend)
			}
		}
	}
	return nil
}

// addCommunityFavorites fills the rest with globally top-rated books.
func (s *RecommendationService) addCommunityFavorites(ctx context.Context, p *picker) error {
	if p.full() {
		return nil
	}
	// Over-fetch by the number of books that would be skipped.
	want := p.limit - len(p.recs) + len(p.excluded) + len(p.chosen)
	books, err := s.store.FindTopRated(ctx, communityMinRating, want)
	if err != nil {
		return fmt.Errorf("find top rated: %w", err)
	}
	for _, book := range books {
		if p.eligible(book) {
			p.add(book, explainCommunity, domain.StrategyTopRated)
		}
	}
	return nil
}

// favoriteGenres returns the distinct genre tags of books in first-seen order.
func favoriteGenres(books []*domain.Book) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, b := range books {
		for _, tag := range genre.ParseTags(b.Genres) {
			slug := genre.Canonical(tag)
			if seen[slug] {
				continue
			}
			seen[slug] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

func bookIDsOf(books []*domain.Book) []int64 {
	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}
