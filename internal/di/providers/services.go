package providers

import (
	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

// ProvideRatingAggregator provides the rating aggregator.
func ProvideRatingAggregator(i do.Injector) (*service.RatingAggregator, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingAggregator(storeHandle.Store, log.Component("aggregator")), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	indexerHandle := do.MustInvoke[*CatalogIndexerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Keep the interface nil, not a typed nil, when search is off.
	var searcher service.CatalogSearcher
	if indexHandle.SearchIndex != nil {
		searcher = indexHandle.SearchIndex
	}

	return service.NewBookService(storeHandle.Store, searcher, indexerHandle.CatalogIndexer, log.Component("books")), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregator := do.MustInvoke[*service.RatingAggregator](i)
	indexerHandle := do.MustInvoke[*CatalogIndexerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, aggregator, indexerHandle.CatalogIndexer, log.Component("reviews")), nil
}

// ProvideRecommendationService provides the recommendation service.
func ProvideRecommendationService(i do.Injector) (*service.RecommendationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aiHandle := do.MustInvoke[*AIClientHandle](i)
	coverHandle := do.MustInvoke[*CoverClientHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	var resolver service.TitleResolver
	if indexHandle.SearchIndex != nil {
		resolver = indexHandle.SearchIndex
	}

	return service.NewRecommendationService(
		storeHandle.Store,
		aiHandle.Client,
		coverHandle.Client,
		resolver,
		log.Component("recommendations"),
	), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregator := do.MustInvoke[*service.RatingAggregator](i)
	indexerHandle := do.MustInvoke[*CatalogIndexerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, aggregator, indexerHandle.CatalogIndexer, log.Component("users")), nil
}

// ProvideFeedbackService provides the recommendation feedback service.
func ProvideFeedbackService(i do.Injector) (*service.FeedbackService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFeedbackService(storeHandle.Store, log.Component("feedback")), nil
}
