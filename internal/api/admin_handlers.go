package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recalculateBookRating",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/books/{id}/recalculate",
		Summary:     "Recalculate book rating",
		Description: "Recomputes a book's average rating and review count from its reviews",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRecalculateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "verifyAggregates",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/aggregates/verify",
		Summary:     "Verify rating aggregates",
		Description: "Compares every book's stored aggregate with its reviews and optionally repairs drift",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleVerifyAggregates)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteUser",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/users/{id}",
		Summary:     "Delete user",
		Description: "Deletes a user with their reviews and favorites, recalculating every book they reviewed",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteUser)
}

// === DTOs ===

// VerifyAggregatesInput contains parameters for aggregate verification.
type VerifyAggregatesInput struct {
	Repair bool `query:"repair" doc:"Rewrite drifted aggregates"`
}

// VerifyAggregatesOutput wraps the verification report for Huma.
type VerifyAggregatesOutput struct {
	Body service.VerifyReport
}

// BookAggregateOutput wraps a book aggregate for Huma.
type BookAggregateOutput struct {
	Body BookAggregate
}

// UserIDInput identifies a user by path.
type UserIDInput struct {
	ID int64 `path:"id" doc:"User ID"`
}

// === Handlers ===

func (s *Server) handleRecalculateBook(ctx context.Context, input *BookIDInput) (*BookAggregateOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	// Recalculate is a no-op for a missing book; the admin API reports it.
	if _, err := s.services.Books.GetBook(ctx, input.ID); err != nil {
		return nil, err
	}

	if err := s.services.Aggregator.Recalculate(ctx, input.ID); err != nil {
		return nil, err
	}

	agg := s.bookAggregate(ctx, input.ID)
	if agg == nil {
		return nil, huma.Error500InternalServerError("failed to read recalculated aggregate")
	}
	return &BookAggregateOutput{Body: *agg}, nil
}

func (s *Server) handleVerifyAggregates(ctx context.Context, input *VerifyAggregatesInput) (*VerifyAggregatesOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	report, err := s.services.Aggregator.Verify(ctx, input.Repair)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Aggregate verification run",
		"admin_id", adminID,
		"books_checked", report.BooksChecked,
		"drifted", len(report.Drifted),
		"repaired", report.Repaired,
	)
	return &VerifyAggregatesOutput{Body: *report}, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, input *UserIDInput) (*MessageOutput, error) {
	adminID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Users.DeleteUser(ctx, adminID, input.ID); err != nil {
		return nil, err
	}

	s.logger.Info("User deleted", "admin_id", adminID, "user_id", input.ID)
	return messageOutput("User deleted"), nil
}
