// Package store defines the persistence interface for the book review server.
//
// Storage calls return data only; they never compute or write a book's rating
// aggregate on their own. The aggregate is maintained by the service layer
// through Tx.SetBookAggregate, inside the transaction of the review write that
// changed it.
package store

import (
	"context"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// InTx runs fn inside a write transaction. The transaction commits when
	// fn returns nil and rolls back otherwise. Write transactions are
	// serialized, so reads made through tx observe every committed write.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	GetBooksByIDs(ctx context.Context, ids []int64) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id int64) error
	ListBooks(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Book], error)
	ListAllBooks(ctx context.Context) ([]*domain.Book, error)
	CountBooks(ctx context.Context) (int, error)

	// Catalog queries
	SearchBooks(ctx context.Context, query string, params PaginationParams) (*PaginatedResult[*domain.Book], error)
	ListTopRated(ctx context.Context, minRating float64, params PaginationParams) (*PaginatedResult[*domain.Book], error)
	ListPopular(ctx context.Context, minReviews int, params PaginationParams) (*PaginatedResult[*domain.Book], error)
	ListRecent(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.Book], error)

	// Recommendation queries. Results are ordered by average_rating DESC,
	// review_count DESC, id ASC.
	FindSimilar(ctx context.Context, bookID int64, author, genres string, limit int) ([]*domain.Book, error)
	FindByGenre(ctx context.Context, genre string, limit int) ([]*domain.Book, error)
	FindTopRated(ctx context.Context, minRating float64, limit int) ([]*domain.Book, error)
	FindByTitleOrAuthor(ctx context.Context, title, author string) ([]*domain.Book, error)

	// Reviews
	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	GetReviewByUserAndBook(ctx context.Context, userID, bookID int64) (*domain.Review, error)
	ListReviewsByBook(ctx context.Context, bookID int64, params PaginationParams) (*PaginatedResult[*domain.Review], error)
	ListReviewsByUser(ctx context.Context, userID int64, params PaginationParams) (*PaginatedResult[*domain.Review], error)
	CountByBook(ctx context.Context, bookID int64) (int, error)
	AverageRatingByBook(ctx context.Context, bookID int64) (float64, error)
	RatingTotals(ctx context.Context, bookID int64) (count, sum int, err error)
	RatingCounts(ctx context.Context, bookID int64) (map[int]int, error)

	// Favorites
	AddFavorite(ctx context.Context, userID, bookID int64) error
	RemoveFavorite(ctx context.Context, userID, bookID int64) (bool, error)
	IsFavorite(ctx context.Context, userID, bookID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]*domain.Book, error)

	// Recommendation feedback
	UpsertFeedback(ctx context.Context, fb *domain.RecommendationFeedback) error
	GetFeedback(ctx context.Context, userID, bookID int64) (*domain.RecommendationFeedback, error)
	ListDislikedBookIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Tx is the write-side view of the store used inside Store.InTx.
type Tx interface {
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error

	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	GetReviewByUserAndBook(ctx context.Context, userID, bookID int64) (*domain.Review, error)
	CreateReview(ctx context.Context, review *domain.Review) error
	UpdateReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, id int64) error
	ReviewedBookIDs(ctx context.Context, userID int64) ([]int64, error)

	// RatingTotals returns the number of reviews and the sum of their ratings.
	RatingTotals(ctx context.Context, bookID int64) (count, sum int, err error)
	// SetBookAggregate writes both derived fields in one statement.
	// Returns ErrNotFound if the book does not exist.
	SetBookAggregate(ctx context.Context, bookID int64, agg domain.Aggregate) error
}
