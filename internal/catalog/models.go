package catalog

import (
	"strings"
	"time"
)

// Book represents one entry in the catalogue. ISBN is the unique key used
// for de-duplication; BookID carries the source system identifier and is
// generated when absent. Multi-value fields (authors, categories, editors)
// are stored as comma-separated strings, matching the Bookshelf export
// format they are imported from.
type Book struct {
	BookID    string
	ISBN      string
	Title     string
	Subtitle  string
	Bookshelf string
	DateAdded *time.Time

	Wishlist       bool
	Read           bool
	PagesRead      int
	NumberOfCopies int
	Signed         bool

	Authors     string
	Language    string
	PublishedAt *time.Time
	Publisher   string
	PageCount   int
	Description string
	Categories  string
	Format      string

	Series string
	Volume string

	Editors      string
	Translators  string
	Illustrators string

	Verified     bool
	LastVerified *time.Time
}

// FullTitle returns the title with the subtitle appended when present.
func (b *Book) FullTitle() string {
	if strings.TrimSpace(b.Subtitle) != "" {
		return b.Title + ": " + b.Subtitle
	}
	return b.Title
}

// DisplayTitle returns the title truncated with an ellipsis if it exceeds max.
func (b *Book) DisplayTitle(max int) string {
	if max <= 3 || len(b.Title) <= max {
		return b.Title
	}
	return b.Title[:max-3] + "..."
}

// Outcome reports what an upsert did.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeUpdated  Outcome = "updated"
)

// Stats aggregates collection counts for display surfaces.
type Stats struct {
	BookCount    int
	ShelfCounts  map[string]int
	FormatCounts map[string]int
	Shelves      []string
	LastAdded    *time.Time
}

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	Shelf  string
	Search string
}
