package testsupport

import (
	"context"
	"testing"
	"time"

	"oakwood/internal/catalog"
	"oakwood/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewBook returns a populated book for tests.
func NewBook(isbn, title string) *catalog.Book {
	added := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	return &catalog.Book{
		BookID:         "test-" + isbn,
		ISBN:           isbn,
		Title:          title,
		Bookshelf:      "Fiction",
		DateAdded:      &added,
		Authors:        "Test Author",
		Publisher:      "Test House",
		PageCount:      300,
		NumberOfCopies: 1,
	}
}

// SeedBook upserts a book and fails the test on error.
func SeedBook(t testing.TB, store *catalog.Store, book *catalog.Book) *catalog.Book {
	t.Helper()

	if _, err := store.Upsert(context.Background(), book); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return book
}
