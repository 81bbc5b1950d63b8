package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyISBN is returned when a record without an ISBN reaches the store.
var ErrEmptyISBN = errors.New("isbn must not be empty")

// Exists reports whether a book with the given ISBN is present.
func (s *Store) Exists(ctx context.Context, isbn string) (bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT 1 FROM books WHERE isbn = ?`, isbn)
	var one int
	err := row.Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check isbn: %w", err)
	}
	return true, nil
}

// GetByISBN fetches a single book. Returns nil when absent.
func (s *Store) GetByISBN(ctx context.Context, isbn string) (*Book, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE isbn = ?`, isbn)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// Upsert inserts a book or overwrites the existing row with the same ISBN.
// This is the store's sole de-duplication primitive: a second upsert with an
// existing ISBN never creates another row. A missing BookID is generated and
// a missing DateAdded defaults to today on insert.
func (s *Store) Upsert(ctx context.Context, book *Book) (Outcome, error) {
	if book == nil {
		return "", errors.New("book is nil")
	}
	if strings.TrimSpace(book.ISBN) == "" {
		return "", ErrEmptyISBN
	}
	ctx = ensureContext(ctx)

	exists, err := s.Exists(ctx, book.ISBN)
	if err != nil {
		return "", err
	}

	if !exists {
		if strings.TrimSpace(book.BookID) == "" {
			book.BookID = uuid.NewString()
		}
		if book.DateAdded == nil {
			now := time.Now().UTC().Truncate(24 * time.Hour)
			book.DateAdded = &now
		}
		if _, err := s.execWithRetry(
			ctx,
			`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			bookArgs(book)...,
		); err != nil {
			return "", fmt.Errorf("insert book: %w", err)
		}
		return OutcomeInserted, nil
	}

	if _, err := s.execWithRetry(
		ctx,
		`UPDATE books SET
            book_id = COALESCE(NULLIF(?, ''), book_id), title = ?, bookshelf = ?, date_added = COALESCE(?, date_added),
            wishlist = ?, read = ?, pages_read = ?, number_of_copies = ?, signed = ?,
            authors = ?, language = ?, published_at = ?, publisher = ?, page_count = ?,
            description = ?, categories = ?, format = ?, subtitle = ?, series = ?, volume = ?,
            editors = ?, translators = ?, illustrators = ?, verified = ?, last_verified = ?
         WHERE isbn = ?`,
		book.BookID,
		book.Title,
		book.Bookshelf,
		nullableDate(book.DateAdded),
		boolToInt(book.Wishlist),
		boolToInt(book.Read),
		book.PagesRead,
		book.NumberOfCopies,
		boolToInt(book.Signed),
		book.Authors,
		book.Language,
		nullableDate(book.PublishedAt),
		book.Publisher,
		book.PageCount,
		book.Description,
		book.Categories,
		book.Format,
		book.Subtitle,
		book.Series,
		book.Volume,
		book.Editors,
		book.Translators,
		book.Illustrators,
		boolToInt(book.Verified),
		nullableDate(book.LastVerified),
		book.ISBN,
	); err != nil {
		return "", fmt.Errorf("update book: %w", err)
	}
	return OutcomeUpdated, nil
}

func bookArgs(book *Book) []any {
	return []any{
		book.BookID,
		book.ISBN,
		book.Title,
		book.Bookshelf,
		nullableDate(book.DateAdded),
		boolToInt(book.Wishlist),
		boolToInt(book.Read),
		book.PagesRead,
		book.NumberOfCopies,
		boolToInt(book.Signed),
		book.Authors,
		book.Language,
		nullableDate(book.PublishedAt),
		book.Publisher,
		book.PageCount,
		book.Description,
		book.Categories,
		book.Format,
		book.Subtitle,
		book.Series,
		book.Volume,
		book.Editors,
		book.Translators,
		book.Illustrators,
		boolToInt(book.Verified),
		nullableDate(book.LastVerified),
	}
}

// List returns books matching the filter, ordered alphabetically by title.
// The search term matches title, authors, or ISBN as a substring.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Book, error) {
	ctx = ensureContext(ctx)

	query := `SELECT ` + bookColumns + ` FROM books`
	var (
		clauses []string
		args    []any
	)
	if strings.TrimSpace(filter.Shelf) != "" {
		clauses = append(clauses, `bookshelf = ?`)
		args = append(args, filter.Shelf)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := "%" + filter.Search + "%"
		clauses = append(clauses, `(title LIKE ? OR authors LIKE ? OR isbn LIKE ?)`)
		args = append(args, pattern, pattern, pattern)
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY title`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// ListByDateAdded returns all books ordered by date added, newest first.
// Undated books sort last, alphabetically.
func (s *Store) ListByDateAdded(ctx context.Context) ([]*Book, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY date_added IS NULL, date_added DESC, title`,
	)
	if err != nil {
		return nil, fmt.Errorf("list books by date: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// Shelves returns all distinct shelf names, sorted alphabetically.
func (s *Store) Shelves(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT bookshelf FROM books ORDER BY bookshelf`)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()

	var shelves []string
	for rows.Next() {
		var shelf string
		if err := rows.Scan(&shelf); err != nil {
			return nil, err
		}
		shelves = append(shelves, shelf)
	}
	return shelves, rows.Err()
}

// Stats aggregates collection counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{
		ShelfCounts:  make(map[string]int),
		FormatCounts: make(map[string]int),
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`)
	if err := row.Scan(&stats.BookCount); err != nil {
		return Stats{}, fmt.Errorf("count books: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT bookshelf, COUNT(*) FROM books GROUP BY bookshelf`)
	if err != nil {
		return Stats{}, fmt.Errorf("shelf counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			shelf string
			count int
		)
		if err := rows.Scan(&shelf, &count); err != nil {
			return Stats{}, err
		}
		stats.ShelfCounts[shelf] = count
		stats.Shelves = append(stats.Shelves, shelf)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}
	sort.Strings(stats.Shelves)

	formatRows, err := s.db.QueryContext(ctx, `SELECT format, COUNT(*) FROM books WHERE format != '' GROUP BY format`)
	if err != nil {
		return Stats{}, fmt.Errorf("format counts: %w", err)
	}
	defer formatRows.Close()
	for formatRows.Next() {
		var (
			format string
			count  int
		)
		if err := formatRows.Scan(&format, &count); err != nil {
			return Stats{}, err
		}
		stats.FormatCounts[format] = count
	}
	if err := formatRows.Err(); err != nil {
		return Stats{}, err
	}

	dateRow := s.db.QueryRowContext(
		ctx,
		`SELECT date_added FROM books WHERE date_added IS NOT NULL ORDER BY date_added DESC LIMIT 1`,
	)
	var lastAdded sql.NullString
	if err := dateRow.Scan(&lastAdded); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("last added date: %w", err)
	}
	stats.LastAdded = parseDateString(lastAdded.String)

	return stats, nil
}
