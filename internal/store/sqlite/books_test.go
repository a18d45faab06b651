package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

func bookIDs(books []*domain.Book) []int64 {
	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreateBook_IgnoresAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := &domain.Book{
		Title:         "The Hobbit",
		Author:        "J.R.R. Tolkien",
		Genres:        "Fantasy, Adventure",
		PublishedYear: 1937,
		AverageRating: 4.9,
		ReviewCount:   1000,
	}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetBook(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AverageRating != 0 || got.ReviewCount != 0 {
		t.Errorf("expected empty aggregate, got %.2f/%d", got.AverageRating, got.ReviewCount)
	}
	if got.PublishedYear != 1937 || got.Genres != "Fantasy, Adventure" {
		t.Errorf("unexpected book: %+v", got)
	}
}

func TestUpdateBook_KeepsAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := mustCreateBook(t, s, "Dracula", "Bram Stoker", "Horror")
	setAggregate(t, s, b.ID, 3, 4.33)

	b.Title = "Dracula (Annotated)"
	b.Genres = "Horror, Classics"
	b.AverageRating = 1
	b.ReviewCount = 99
	if err := s.UpdateBook(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.GetBook(ctx, b.ID)
	if got.Title != "Dracula (Annotated)" {
		t.Errorf("title not updated: %s", got.Title)
	}
	if got.ReviewCount != 3 || got.AverageRating != 4.33 {
		t.Errorf("aggregate changed by catalog update: %.2f/%d", got.AverageRating, got.ReviewCount)
	}

	classics, err := s.FindByGenre(ctx, "classics", 10)
	if err != nil {
		t.Fatalf("find by genre: %v", err)
	}
	if len(classics) != 1 {
		t.Errorf("expected genre slugs to be rewritten, got %d books", len(classics))
	}

	missing := &domain.Book{ID: 12345, Title: "x", Author: "y"}
	if err := s.UpdateBook(ctx, missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := mustCreateBook(t, s, "Ulysses", "James Joyce", "")

	if err := s.DeleteBook(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetBook(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteBook(ctx, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSetBookAggregate_MissingBook(t *testing.T) {
	s := newTestStore(t)
	err := s.InTx(context.Background(), func(tx store.Tx) error {
		return tx.SetBookAggregate(context.Background(), 42, domain.NewAggregate(1, 5))
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindSimilar(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hobbit := mustCreateBook(t, s, "The Hobbit", "J.R.R. Tolkien", "Fantasy, Adventure")
	lotr := mustCreateBook(t, s, "The Lord of the Rings", "J.R.R. Tolkien", "Epic")
	mistborn := mustCreateBook(t, s, "Mistborn", "Brandon Sanderson", "fantasy")
	treasure := mustCreateBook(t, s, "Treasure Island", "R. L. Stevenson", "Adventure")
	mustCreateBook(t, s, "Gone Girl", "Gillian Flynn", "Thriller")

	setAggregate(t, s, lotr.ID, 10, 4.5)
	setAggregate(t, s, mistborn.ID, 20, 4.5)
	setAggregate(t, s, treasure.ID, 5, 3.9)

	got, err := s.FindSimilar(ctx, hobbit.ID, "j.r.r. tolkien", hobbit.Genres, 10)
	if err != nil {
		t.Fatalf("find similar: %v", err)
	}
	want := []int64{mistborn.ID, lotr.ID, treasure.ID}
	if !equalIDs(bookIDs(got), want) {
		t.Errorf("expected %v, got %v", want, bookIDs(got))
	}

	got, _ = s.FindSimilar(ctx, hobbit.ID, "Nobody", "", 10)
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", bookIDs(got))
	}

	got, _ = s.FindSimilar(ctx, hobbit.ID, "J.R.R. Tolkien", hobbit.Genres, 1)
	if len(got) != 1 {
		t.Errorf("expected limit to apply, got %d", len(got))
	}
}

func TestFindByGenre_MatchesCanonicalSlug(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dune := mustCreateBook(t, s, "Dune", "Frank Herbert", "Sci-Fi")
	found := mustCreateBook(t, s, "Foundation", "Isaac Asimov", "Science Fiction, Classics")
	mustCreateBook(t, s, "Fiction Stories", "Anon", "Fiction")
	setAggregate(t, s, found.ID, 2, 4.0)

	got, err := s.FindByGenre(ctx, "science fiction", 5)
	if err != nil {
		t.Fatalf("find by genre: %v", err)
	}
	want := []int64{found.ID, dune.ID}
	if !equalIDs(bookIDs(got), want) {
		t.Errorf("expected %v, got %v", want, bookIDs(got))
	}
}

func TestFindTopRated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreateBook(t, s, "A", "x", "")
	b := mustCreateBook(t, s, "B", "y", "")
	c := mustCreateBook(t, s, "C", "z", "")
	mustCreateBook(t, s, "Unreviewed", "w", "")
	setAggregate(t, s, a.ID, 4, 4.25)
	setAggregate(t, s, b.ID, 9, 4.0)
	setAggregate(t, s, c.ID, 3, 3.99)

	got, err := s.FindTopRated(ctx, 4.0, 10)
	if err != nil {
		t.Fatalf("top rated: %v", err)
	}
	want := []int64{a.ID, b.ID}
	if !equalIDs(bookIDs(got), want) {
		t.Errorf("expected %v, got %v", want, bookIDs(got))
	}
}

func TestFindByTitleOrAuthor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateBook(t, s, "The Name of the Wind", "Patrick Rothfuss", "Fantasy")
	mustCreateBook(t, s, "The Wise Man's Fear", "Patrick Rothfuss", "Fantasy")
	mustCreateBook(t, s, "100% Wind", "Someone", "")

	got, err := s.FindByTitleOrAuthor(ctx, "name of the WIND", "")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 title match, got %d", len(got))
	}

	got, _ = s.FindByTitleOrAuthor(ctx, "nothing like it", "rothfuss")
	if len(got) != 2 {
		t.Errorf("expected 2 author matches, got %d", len(got))
	}

	got, _ = s.FindByTitleOrAuthor(ctx, "100%", "")
	if len(got) != 1 {
		t.Errorf("expected LIKE wildcards to be escaped, got %d", len(got))
	}

	got, _ = s.FindByTitleOrAuthor(ctx, " ", "")
	if len(got) != 0 {
		t.Errorf("expected empty terms to match nothing, got %d", len(got))
	}
}

func TestListBooks_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		mustCreateBook(t, s, title, "Author", "")
	}

	page, err := s.ListBooks(ctx, store.PaginationParams{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Items) != 2 || !page.HasMore || page.Total != 5 {
		t.Fatalf("unexpected first page: items=%d hasMore=%v total=%d", len(page.Items), page.HasMore, page.Total)
	}

	var titles []string
	cursor := ""
	for {
		page, err := s.ListBooks(ctx, store.PaginationParams{Limit: 2, Cursor: cursor})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, b := range page.Items {
			titles = append(titles, b.Title)
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}
	if len(titles) != 5 || titles[0] != "One" || titles[4] != "Five" {
		t.Errorf("unexpected titles: %v", titles)
	}

	if _, err := s.ListBooks(ctx, store.PaginationParams{Cursor: "!!!"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad cursor, got %v", err)
	}
}

func TestCatalogLists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := mustCreateBook(t, s, "Old Favourite", "A", "Mystery")
	busy := mustCreateBook(t, s, "Busy Book", "B", "Mystery")
	newest := mustCreateBook(t, s, "Newest", "C", "Romance")
	setAggregate(t, s, old.ID, 3, 4.8)
	setAggregate(t, s, busy.ID, 60, 3.2)

	popular, err := s.ListPopular(ctx, 10, store.PaginationParams{})
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if !equalIDs(bookIDs(popular.Items), []int64{busy.ID}) {
		t.Errorf("unexpected popular: %v", bookIDs(popular.Items))
	}

	top, _ := s.ListTopRated(ctx, 4.0, store.PaginationParams{})
	if !equalIDs(bookIDs(top.Items), []int64{old.ID}) {
		t.Errorf("unexpected top rated: %v", bookIDs(top.Items))
	}

	recent, _ := s.ListRecent(ctx, store.PaginationParams{Limit: 1})
	if len(recent.Items) != 1 || recent.Items[0].ID != newest.ID {
		t.Errorf("expected newest first, got %v", bookIDs(recent.Items))
	}

	found, _ := s.SearchBooks(ctx, "mystery", store.PaginationParams{})
	if found.Total != 2 {
		t.Errorf("expected 2 genre matches, got %d", found.Total)
	}
}

func TestGetBooksByIDs_PreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustCreateBook(t, s, "A", "x", "")
	b := mustCreateBook(t, s, "B", "x", "")

	got, err := s.GetBooksByIDs(ctx, []int64{b.ID, 999, a.ID})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if !equalIDs(bookIDs(got), []int64{b.ID, a.ID}) {
		t.Errorf("unexpected order: %v", bookIDs(got))
	}
}
