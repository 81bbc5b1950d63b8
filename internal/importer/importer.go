package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"oakwood/internal/catalog"
)

// Outcome tags what happened to one CSV row.
type Outcome string

const (
	// RowInserted means the row became a new catalogue record.
	RowInserted Outcome = "inserted"
	// RowSkippedDuplicate means the ISBN already exists; the row was not
	// applied. Import never overwrites existing data.
	RowSkippedDuplicate Outcome = "skipped-duplicate"
	// RowError means the row could not be used (empty or malformed ISBN,
	// unparseable record). Reported, not fatal.
	RowError Outcome = "error"
)

// Row is the per-line outcome of an import pass.
type Row struct {
	Line    int
	ISBN    string
	Title   string
	Outcome Outcome
	Reason  string
}

// Summary aggregates an import pass.
type Summary struct {
	Inserted int
	Skipped  int
	Errors   int
}

// Run imports a Bookshelf CSV export into the store. Outcomes are emitted in
// file order through onRow (which may be nil) so callers can render progress
// incrementally; the returned summary totals them. An unreadable file or
// missing header is fatal; individual bad rows are reported and skipped. The
// pass is not restartable — a fresh run reprocesses the whole file, and
// re-importing an already-imported file skips every row.
func Run(ctx context.Context, store *catalog.Store, path string, onRow func(Row)) (Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("read csv header: %w", err)
	}
	columns := headerIndex(header)
	if _, ok := columns["isbn"]; !ok {
		return Summary{}, errors.New("csv has no ISBN column")
	}

	var summary Summary
	emit := func(row Row) {
		switch row.Outcome {
		case RowInserted:
			summary.Inserted++
		case RowSkippedDuplicate:
			summary.Skipped++
		case RowError:
			summary.Errors++
		}
		if onRow != nil {
			onRow(row)
		}
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			emit(Row{Line: line, Outcome: RowError, Reason: err.Error()})
			continue
		}

		book := recordToBook(record, columns)
		if strings.TrimSpace(book.ISBN) == "" {
			emit(Row{Line: line, Title: book.Title, Outcome: RowError, Reason: "empty ISBN"})
			continue
		}

		exists, err := store.Exists(ctx, book.ISBN)
		if err != nil {
			return summary, fmt.Errorf("check isbn %s: %w", book.ISBN, err)
		}
		if exists {
			emit(Row{Line: line, ISBN: book.ISBN, Title: book.Title, Outcome: RowSkippedDuplicate})
			continue
		}

		if _, err := store.Upsert(ctx, book); err != nil {
			emit(Row{Line: line, ISBN: book.ISBN, Title: book.Title, Outcome: RowError, Reason: err.Error()})
			continue
		}
		emit(Row{Line: line, ISBN: book.ISBN, Title: book.Title, Outcome: RowInserted})
	}

	return summary, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func recordToBook(record []string, columns map[string]int) *catalog.Book {
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	copies := parseInt(cell("number of copies"))
	if copies == 0 {
		copies = 1
	}

	return &catalog.Book{
		BookID:         cell("book id"),
		ISBN:           cell("isbn"),
		Title:          cell("title"),
		Subtitle:       cell("subtitle"),
		Bookshelf:      cell("bookshelf"),
		DateAdded:      parseDate(cell("date added")),
		Wishlist:       parseBool(cell("wishlist")),
		Read:           parseBool(cell("read")),
		PagesRead:      parseInt(cell("pages read")),
		NumberOfCopies: copies,
		Signed:         parseBool(cell("signed")),
		Authors:        cell("authors"),
		Language:       cell("language"),
		PublishedAt:    parseDate(cell("published at")),
		Publisher:      cell("publisher"),
		PageCount:      parseInt(cell("page count")),
		Description:    cell("description"),
		Categories:     cell("categories"),
		Format:         cell("format"),
		Series:         cell("series"),
		Volume:         cell("volume"),
		Editors:        cell("editors"),
		Translators:    cell("translators"),
		Illustrators:   cell("illustrators"),
	}
}
