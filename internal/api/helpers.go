package api

import (
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// PageQuery holds the cursor pagination query parameters shared by list endpoints.
type PageQuery struct {
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Items per page (default 20, max 100)"`
}

func (q PageQuery) params() store.PaginationParams {
	return store.PaginationParams{Limit: q.Limit, Cursor: q.Cursor}
}

// BookListResponse is a page of books.
type BookListResponse struct {
	Books      []*domain.Book `json:"books" doc:"Books on this page"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page, empty on the last page"`
	HasMore    bool           `json:"has_more" doc:"Whether another page exists"`
	Total      int            `json:"total" doc:"Total matching books"`
}

// BookListOutput wraps a book page for Huma.
type BookListOutput struct {
	Body BookListResponse
}

func bookListOutput(page *store.PaginatedResult[*domain.Book]) *BookListOutput {
	return &BookListOutput{Body: BookListResponse{
		Books:      page.Items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}}
}

// ReviewListResponse is a page of reviews.
type ReviewListResponse struct {
	Reviews    []*domain.Review `json:"reviews" doc:"Reviews on this page"`
	NextCursor string           `json:"next_cursor,omitempty" doc:"Cursor for the next page, empty on the last page"`
	HasMore    bool             `json:"has_more" doc:"Whether another page exists"`
	Total      int              `json:"total" doc:"Total reviews"`
}

// ReviewListOutput wraps a review page for Huma.
type ReviewListOutput struct {
	Body ReviewListResponse
}

func reviewListOutput(page *store.PaginatedResult[*domain.Review]) *ReviewListOutput {
	return &ReviewListOutput{Body: ReviewListResponse{
		Reviews:    page.Items,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}}
}

// MessageResponse is returned by operations that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message" doc:"Outcome of the operation"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

func messageOutput(msg string) *MessageOutput {
	return &MessageOutput{Body: MessageResponse{Message: msg}}
}
