package catalog

import (
	"context"
	"fmt"
)

const createBooksTable = `
CREATE TABLE IF NOT EXISTS books (
    book_id TEXT PRIMARY KEY,
    isbn TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    bookshelf TEXT NOT NULL DEFAULT '',
    date_added TEXT,
    wishlist INTEGER DEFAULT 0,
    read INTEGER DEFAULT 0,
    pages_read INTEGER DEFAULT 0,
    number_of_copies INTEGER DEFAULT 1,
    signed INTEGER DEFAULT 0,
    authors TEXT DEFAULT '',
    language TEXT DEFAULT '',
    published_at TEXT,
    publisher TEXT DEFAULT '',
    page_count INTEGER DEFAULT 0,
    description TEXT DEFAULT '',
    categories TEXT DEFAULT '',
    format TEXT DEFAULT '',
    subtitle TEXT DEFAULT '',
    series TEXT DEFAULT '',
    volume TEXT DEFAULT '',
    editors TEXT DEFAULT '',
    translators TEXT DEFAULT '',
    illustrators TEXT DEFAULT '',
    verified INTEGER DEFAULT 0,
    last_verified TEXT
)`

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createBooksTable); err != nil {
		return fmt.Errorf("create books table: %w", err)
	}
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_books_isbn ON books(isbn)`,
		`CREATE INDEX IF NOT EXISTS idx_books_bookshelf ON books(bookshelf)`,
	}
	for _, stmt := range indexes {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return s.migrateVerificationColumns(ctx)
}

// migrateVerificationColumns adds the verification columns to databases
// created before they existed.
func (s *Store) migrateVerificationColumns(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(books)`)
	if err != nil {
		return fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	present := make(map[string]struct{})
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table info: %w", err)
	}

	if _, ok := present["verified"]; !ok {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE books ADD COLUMN verified INTEGER DEFAULT 0`); err != nil {
			return fmt.Errorf("add verified column: %w", err)
		}
	}
	if _, ok := present["last_verified"]; !ok {
		if _, err := s.db.ExecContext(ctx, `ALTER TABLE books ADD COLUMN last_verified TEXT`); err != nil {
			return fmt.Errorf("add last_verified column: %w", err)
		}
	}
	return nil
}
