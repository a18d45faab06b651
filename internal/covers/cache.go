package covers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "cover:"

// CacheOptions configures the cover cache.
type CacheOptions struct {
	Path     string        // Directory for the Badger files (ignored when InMemory)
	InMemory bool          // Keep everything in memory, for tests
	TTL      time.Duration // Entry lifetime
	Logger   *slog.Logger
}

// Cache stores resolved cover URLs in Badger with a TTL.
type Cache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// OpenCache opens or creates the cover cache.
func OpenCache(opts CacheOptions) (*Cache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open cover cache: %w", err)
	}

	logger.Info("cover cache opened", "path", opts.Path, "in_memory", opts.InMemory, "ttl", opts.TTL)
	return &Cache{db: db, ttl: opts.TTL, logger: logger}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached URL for title and author.
func (c *Cache) Get(title, author string) (string, bool, error) {
	var url string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(title, author))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			url = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return url, true, nil
}

// Set stores url for title and author until the TTL elapses.
func (c *Cache) Set(title, author, url string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(cacheKey(title, author), []byte(url))
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// cacheKey folds case and surrounding whitespace so equivalent lookups share an entry.
func cacheKey(title, author string) []byte {
	return []byte(keyPrefix + strings.ToLower(strings.TrimSpace(title)) + "\x00" + strings.ToLower(strings.TrimSpace(author)))
}
