package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"oakwood/internal/config"
)

// Store manages catalogue persistence backed by SQLite. A single connection
// with WAL journaling and a busy timeout serializes writers while readers
// proceed concurrently.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the catalogue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const bookColumns = "book_id, isbn, title, bookshelf, date_added, wishlist, read, pages_read, " +
	"number_of_copies, signed, authors, language, published_at, publisher, page_count, " +
	"description, categories, format, subtitle, series, volume, editors, translators, " +
	"illustrators, verified, last_verified"

func scanBook(scanner interface{ Scan(dest ...any) error }) (*Book, error) {
	var (
		bookID       string
		isbn         string
		title        string
		bookshelf    sql.NullString
		dateAdded    sql.NullString
		wishlist     sql.NullInt64
		read         sql.NullInt64
		pagesRead    sql.NullInt64
		copies       sql.NullInt64
		signed       sql.NullInt64
		authors      sql.NullString
		language     sql.NullString
		publishedAt  sql.NullString
		publisher    sql.NullString
		pageCount    sql.NullInt64
		description  sql.NullString
		categories   sql.NullString
		format       sql.NullString
		subtitle     sql.NullString
		series       sql.NullString
		volume       sql.NullString
		editors      sql.NullString
		translators  sql.NullString
		illustrators sql.NullString
		verified     sql.NullInt64
		lastVerified sql.NullString
	)

	if err := scanner.Scan(
		&bookID,
		&isbn,
		&title,
		&bookshelf,
		&dateAdded,
		&wishlist,
		&read,
		&pagesRead,
		&copies,
		&signed,
		&authors,
		&language,
		&publishedAt,
		&publisher,
		&pageCount,
		&description,
		&categories,
		&format,
		&subtitle,
		&series,
		&volume,
		&editors,
		&translators,
		&illustrators,
		&verified,
		&lastVerified,
	); err != nil {
		return nil, err
	}

	book := &Book{
		BookID:         bookID,
		ISBN:           isbn,
		Title:          title,
		Bookshelf:      bookshelf.String,
		Wishlist:       wishlist.Int64 != 0,
		Read:           read.Int64 != 0,
		PagesRead:      int(pagesRead.Int64),
		NumberOfCopies: int(copies.Int64),
		Signed:         signed.Int64 != 0,
		Authors:        authors.String,
		Language:       language.String,
		Publisher:      publisher.String,
		PageCount:      int(pageCount.Int64),
		Description:    description.String,
		Categories:     categories.String,
		Format:         format.String,
		Subtitle:       subtitle.String,
		Series:         series.String,
		Volume:         volume.String,
		Editors:        editors.String,
		Translators:    translators.String,
		Illustrators:   illustrators.String,
		Verified:       verified.Int64 != 0,
	}
	book.DateAdded = parseDateString(dateAdded.String)
	book.PublishedAt = parseDateString(publishedAt.String)
	book.LastVerified = parseDateString(lastVerified.String)
	return book, nil
}

const dateLayout = "2006-01-02"

func parseDateString(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	return nil
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Format(dateLayout)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
