// Package main provides a tool to seed the database with a demo catalog.
//
// It creates an admin and a few readers, a catalog spread over several
// genres, and reviews and favorites so every recommendation strategy has
// something to work with. Access tokens for the seeded users are printed.
//
// Usage:
//
//	go run ./cmd/seed
//	DATA_PATH=/tmp/bookreview go run ./cmd/seed --reviews=false
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/service"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/store/sqlite"
)

var withReviews = flag.Bool("reviews", true, "Create reviews and favorites for the seeded readers")

type seedBook struct {
	title, author, genres string
	year                  int
}

var catalog = []seedBook{
	{"The Hobbit", "J.R.R. Tolkien", "Fantasy, Adventure", 1937},
	{"The Fellowship of the Ring", "J.R.R. Tolkien", "Fantasy, Adventure", 1954},
	{"Mistborn: The Final Empire", "Brandon Sanderson", "Fantasy", 2006},
	{"A Wizard of Earthsea", "Ursula K. Le Guin", "Fantasy", 1968},
	{"The Left Hand of Darkness", "Ursula K. Le Guin", "Science Fiction", 1969},
	{"Dune", "Frank Herbert", "Science Fiction", 1965},
	{"Foundation", "Isaac Asimov", "Science Fiction", 1951},
	{"Neuromancer", "William Gibson", "Science Fiction, Cyberpunk", 1984},
	{"The Name of the Rose", "Umberto Eco", "Mystery, Historical Fiction", 1980},
	{"Gone Girl", "Gillian Flynn", "Mystery, Thriller", 2012},
	{"The Big Sleep", "Raymond Chandler", "Mystery, Crime", 1939},
	{"Pride and Prejudice", "Jane Austen", "Romance, Classics", 1813},
	{"Jane Eyre", "Charlotte Brontë", "Romance, Classics, Gothic", 1847},
	{"Rebecca", "Daphne du Maurier", "Gothic, Mystery", 1938},
	{"Beloved", "Toni Morrison", "Literary Fiction", 1987},
	{"Middlemarch", "George Eliot", "Classics, Literary Fiction", 1871},
}

type seedUser struct {
	email, name string
	admin       bool
}

var users = []seedUser{
	{"admin@bookreview.local", "Admin", true},
	{"ada@bookreview.local", "Ada Reader", false},
	{"ben@bookreview.local", "Ben Reader", false},
	{"cy@bookreview.local", "Cy Reader", false},
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}

	fmt.Printf("Opening database at: %s\n", cfg.Data.DatabasePath())

	lg := logger.Discard()
	db, err := sqlite.Open(cfg.Data.DatabasePath(), lg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	key, err := auth.ResolveKey(cfg.Auth.AccessTokenKey, cfg.Data.AuthKeyPath())
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	// The server reindexes search on boot, so seeding skips the index.
	indexer := service.NewCatalogIndexer(db, store.NewNoopSearchIndexer(), lg)
	aggregator := service.NewRatingAggregator(db, lg)
	bookSvc := service.NewBookService(db, nil, indexer, lg)
	reviewSvc := service.NewReviewService(db, aggregator, indexer, lg)
	userSvc := service.NewUserService(db, aggregator, indexer, lg)
	defer indexer.Wait()

	ctx := context.Background()

	seeded := seedUsers(ctx, userSvc)
	books := seedCatalog(ctx, bookSvc)

	if *withReviews {
		seedActivity(ctx, seeded[1:], books, bookSvc, reviewSvc)
	}

	fmt.Println("\nAccess tokens:")
	for _, u := range seeded {
		token, err := tokens.GenerateAccessToken(u)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", u.Email, err)
		}
		role := "reader"
		if u.IsAdmin {
			role = "admin"
		}
		fmt.Printf("  %-24s (%s)\n    %s\n", u.Email, role, token)
	}

	count, _ := db.CountBooks(ctx)
	fmt.Printf("\nSeed complete: %d users, %d books in catalog\n", len(seeded), count)
}

// seedUsers creates the demo users, reusing any that already exist.
func seedUsers(ctx context.Context, svc *service.UserService) []*domain.User {
	out := make([]*domain.User, 0, len(users))
	for _, su := range users {
		u, err := svc.CreateUser(ctx, su.email, su.name, su.admin)
		if errors.Is(err, domainerrors.Conflict("")) {
			u, err = svc.GetUserByEmail(ctx, su.email)
		}
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", su.email, err)
		}
		out = append(out, u)
	}
	fmt.Printf("Seeded %d users\n", len(out))
	return out
}

// seedCatalog creates the demo catalog. Books already present by title and
// author are skipped.
func seedCatalog(ctx context.Context, svc *service.BookService) []*domain.Book {
	existing, err := svc.ListBooks(ctx, store.PaginationParams{Limit: store.MaxPageSize})
	if err != nil {
		log.Fatalf("Failed to list books: %v", err)
	}

	out := make([]*domain.Book, 0, len(catalog))
	created := 0
	for _, sb := range catalog {
		if b := findBook(existing.Items, sb); b != nil {
			out = append(out, b)
			continue
		}
		b, err := svc.CreateBook(ctx, service.BookInput{
			Title:         sb.title,
			Author:        sb.author,
			Genres:        sb.genres,
			PublishedYear: sb.year,
			Description:   fmt.Sprintf("<p>%s by %s.</p>", sb.title, sb.author),
		})
		if err != nil {
			log.Fatalf("Failed to seed book %q: %v", sb.title, err)
		}
		out = append(out, b)
		created++
	}
	fmt.Printf("Seeded %d books (%d already present)\n", created, len(out)-created)
	return out
}

func findBook(books []*domain.Book, sb seedBook) *domain.Book {
	for _, b := range books {
		if b.SameWork(sb.title, sb.author) {
			return b
		}
	}
	return nil
}

// seedActivity gives each reader a few favorites and reviews. Existing
// reviews are left alone.
func seedActivity(ctx context.Context, readers []*domain.User, books []*domain.Book, bookSvc *service.BookService, reviewSvc *service.ReviewService) {
	rng := rand.New(rand.NewPCG(42, uint64(len(books))))

	reviews := 0
	for _, u := range readers {
		picks := rng.Perm(len(books))[:min(6, len(books))]
		for n, idx := range picks {
			b := books[idx]
			if n < 2 {
				if err := bookSvc.AddFavorite(ctx, u.ID, b.ID); err != nil {
					log.Printf("Failed to favorite %q for %s: %v", b.Title, u.Email, err)
				}
			}

			rating := 2 + rng.IntN(4)
			_, err := reviewSvc.CreateReview(ctx, u.ID, b.ID, rating, domain.RatingName(rating)+" read.")
			switch {
			case err == nil:
				reviews++
			case errors.Is(err, domainerrors.Conflict("")):
			default:
				log.Printf("Failed to review %q for %s: %v", b.Title, u.Email, err)
			}
		}
	}
	fmt.Printf("Seeded %d reviews\n", reviews)
}
