// Package service provides the business logic layer: rating aggregation,
// the review lifecycle, recommendations and the catalog.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/metrics"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// Recalculation triggers, used as the metrics label.
const (
	TriggerCreate     = "create"
	TriggerUpdate     = "update"
	TriggerDelete     = "delete"
	TriggerUserDelete = "user_delete"
	TriggerManual     = "manual"
	TriggerVerify     = "verify"
)

// RatingAggregator keeps each book's average_rating and review_count equal
// to the derived view of its reviews.
//
// Every review write path calls RecalculateTx inside its own transaction,
// so the aggregate is updated in the same unit of work as the mutation.
// Store write transactions are serialized, which makes the count and sum
// read by the recompute always include every committed review.
type RatingAggregator struct {
	store  store.Store
	logger *slog.Logger
}

// NewRatingAggregator creates a new rating aggregator.
func NewRatingAggregator(store store.Store, logger *slog.Logger) *RatingAggregator {
	return &RatingAggregator{
		store:  store,
		logger: logger,
	}
}

// Recalculate recomputes a book's aggregate in its own transaction.
// A missing book is a no-op. Safe to call any number of times.
func (a *RatingAggregator) Recalculate(ctx context.Context, bookID int64) error {
	return a.store.InTx(ctx, func(tx store.Tx) error {
		_, err := a.RecalculateTx(ctx, tx, bookID, TriggerManual)
		return err
	})
}

// RecalculateTx recomputes a book's aggregate inside tx and writes both
// fields in one statement. The book having been deleted concurrently is not
// an error: there is nothing left to update.
func (a *RatingAggregator) RecalculateTx(ctx context.Context, tx store.Tx, bookID int64, trigger string) (domain.Aggregate, error) {
	count, sum, err := tx.RatingTotals(ctx, bookID)
	if err != nil {
		return domain.Aggregate{}, fmt.Errorf("recalculate book %d: %w", bookID, err)
	}

	agg := domain.NewAggregate(count, sum)
	if err := tx.SetBookAggregate(ctx, bookID, agg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.logger.Debug("skipping aggregate for missing book", "book_id", bookID, "trigger", trigger)
			return agg, nil
		}
		return domain.Aggregate{}, fmt.Errorf("recalculate book %d: %w", bookID, err)
	}

	metrics.RecordRecalculation(trigger)
	a.logger.Debug("aggregate recalculated",
		"book_id", bookID,
		"trigger", trigger,
		"review_count", agg.ReviewCount,
		"average_rating", agg.AverageRating(),
	)
	return agg, nil
}

// AggregateDrift describes a book whose stored aggregate disagrees with its reviews.
type AggregateDrift struct {
	BookID          int64   `json:"book_id"`
	Title           string  `json:"title"`
	StoredCount     int     `json:"stored_count"`
	StoredAverage   float64 `json:"stored_average"`
	ExpectedCount   int     `json:"expected_count"`
	ExpectedAverage float64 `json:"expected_average"`
	Repaired        bool    `json:"repaired"`
}

// VerifyReport summarizes an aggregate consistency check.
type VerifyReport struct {
	BooksChecked int              `json:"books_checked"`
	Drifted      []AggregateDrift `json:"drifted"`
	Repaired     int              `json:"repaired"`
}

// Verify compares every book's stored aggregate with its reviews and, when
// repair is set, rewrites the drifted ones.
func (a *RatingAggregator) Verify(ctx context.Context, repair bool) (*VerifyReport, error) {
	books, err := a.store.ListAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	report := &VerifyReport{BooksChecked: len(books), Drifted: []AggregateDrift{}}

	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		count, sum, err := a.store.RatingTotals(ctx, book.ID)
		if err != nil {
			return nil, fmt.Errorf("rating totals for book %d: %w", book.ID, err)
		}

		expected := domain.NewAggregate(count, sum)
		stored := book.Aggregate()
		if expected == stored {
			continue
		}

		metrics.AggregateDriftDetected.Inc()
		drift := AggregateDrift{
			BookID:          book.ID,
			Title:           book.Title,
			StoredCount:     stored.ReviewCount,
			StoredAverage:   stored.AverageRating(),
			ExpectedCount:   expected.ReviewCount,
			ExpectedAverage: expected.AverageRating(),
		}

		if repair {
			err := a.store.InTx(ctx, func(tx store.Tx) error {
				_, err := a.RecalculateTx(ctx, tx, book.ID, TriggerVerify)
				return err
			})
			if err != nil {
				return nil, err
			}
			drift.Repaired = true
			report.Repaired++
		}

		a.logger.Warn("aggregate drift detected",
			"book_id", book.ID,
			"stored_count", drift.StoredCount,
			"stored_average", drift.StoredAverage,
			"expected_count", drift.ExpectedCount,
			"expected_average", drift.ExpectedAverage,
			"repaired", drift.Repaired,
		)
		report.Drifted = append(report.Drifted, drift)
	}

	a.logger.Info("aggregate verification complete",
		"books_checked", report.BooksChecked,
		"drifted", len(report.Drifted),
		"repaired", report.Repaired,
	)
	return report, nil
}
