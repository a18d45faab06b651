package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// UserService manages accounts. Accounts are provisioned by the seeder or
// an admin; there is no self-service registration.
type UserService struct {
	store      store.Store
	aggregator *RatingAggregator
	indexer    *CatalogIndexer
	logger     *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, aggregator *RatingAggregator, indexer *CatalogIndexer, logger *slog.Logger) *UserService {
	return &UserService{
		store:      store,
		aggregator: aggregator,
		indexer:    indexer,
		logger:     logger,
	}
}

// CreateUser provisions an active account.
func (s *UserService) CreateUser(ctx context.Context, email, name string, isAdmin bool) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domainerrors.Validation("a valid email is required")
	}
	if name == "" {
		return nil, domainerrors.Validation("name is required")
	}

	user := &domain.User{Email: email, Name: name, Active: true, IsAdmin: isAdmin}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID, "email", user.Email, "is_admin", isAdmin)
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("user %d not found", id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, ignoring case.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user. Their reviews and favorites cascade, and
// every book they reviewed is recalculated in the same transaction.
func (s *UserService) DeleteUser(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return domainerrors.Forbidden("cannot delete your own account")
	}

	var affected []int64
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		affected, err = tx.ReviewedBookIDs(ctx, userID)
		if err != nil {
			return fmt.Errorf("list reviewed books: %w", err)
		}

		if err := tx.DeleteUser(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("user %d not found", userID)
			}
			return fmt.Errorf("delete user: %w", err)
		}

		for _, bookID := range affected {
			if _, err := s.aggregator.RecalculateTx(ctx, tx, bookID, TriggerUserDelete); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", userID, "deleted_by", actorID, "books_recalculated", len(affected))
	for _, bookID := range affected {
		s.indexer.Refresh(bookID)
	}
	return nil
}
