package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

func (s *Server) registerFavoriteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyFavorites",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/favorites",
		Summary:     "List my favorites",
		Description: "Returns the caller's favorite books in the order they were added",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFavorites)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFavorite",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/favorite",
		Summary:     "Get favorite status",
		Description: "Returns whether the caller has favorited the book",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFavorite",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/favorite",
		Summary:     "Add favorite",
		Description: "Marks the book as a favorite. Adding twice is a no-op",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFavorite",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}/favorite",
		Summary:     "Remove favorite",
		Description: "Removes the book from the caller's favorites",
		Tags:        []string{"Favorites"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFavorite)
}

// === DTOs ===

// FavoritesResponse lists the caller's favorite books.
type FavoritesResponse struct {
	Books []*domain.Book `json:"books" doc:"Favorite books, oldest first"`
	Count int            `json:"count" doc:"Number of favorites"`
}

// FavoritesOutput wraps the favorites response for Huma.
type FavoritesOutput struct {
	Body FavoritesResponse
}

// FavoriteStatusResponse reports whether a book is a favorite.
type FavoriteStatusResponse struct {
	BookID     int64 `json:"book_id" doc:"Book ID"`
	IsFavorite bool  `json:"is_favorite" doc:"Whether the caller favorited the book"`
}

// FavoriteStatusOutput wraps the favorite status for Huma.
type FavoriteStatusOutput struct {
	Body FavoriteStatusResponse
}

// === Handlers ===

func (s *Server) handleListFavorites(ctx context.Context, _ *struct{}) (*FavoritesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Books.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &FavoritesOutput{Body: FavoritesResponse{Books: books, Count: len(books)}}, nil
}

func (s *Server) handleGetFavorite(ctx context.Context, input *BookIDInput) (*FavoriteStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	// A missing book is a 404, not "not a favorite".
	fav, err := s.services.Books.IsFavorite(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &FavoriteStatusOutput{Body: FavoriteStatusResponse{BookID: input.ID, IsFavorite: fav}}, nil
}

func (s *Server) handleAddFavorite(ctx context.Context, input *BookIDInput) (*FavoriteStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Books.AddFavorite(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &FavoriteStatusOutput{Body: FavoriteStatusResponse{BookID: input.ID, IsFavorite: true}}, nil
}

func (s *Server) handleRemoveFavorite(ctx context.Context, input *BookIDInput) (*FavoriteStatusOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.services.Books.RemoveFavorite(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &FavoriteStatusOutput{Body: FavoriteStatusResponse{BookID: input.ID, IsFavorite: false}}, nil
}
