package reconcile

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"oakwood/internal/catalog"
	"oakwood/internal/openlibrary"
)

// fieldNames is the fixed comparison order. Resolution prompts and commits
// always walk fields in this order.
var fieldNames = []string{
	"title",
	"authors",
	"page_count",
	"publisher",
	"published_at",
	"categories",
	"description",
}

var titleCaser = cases.Title(language.English)

// FieldLabel turns a column key into its display form ("page_count" ->
// "Page Count").
func FieldLabel(field string) string {
	return titleCaser.String(strings.ReplaceAll(field, "_", " "))
}

// Difference captures one field where the local record and the candidate
// disagree. Local and Remote hold display strings; remoteValue is the typed
// value staged for an UpdateFields commit.
type Difference struct {
	Field  string
	Label  string
	Local  string
	Remote string

	remoteValue any
}

// compare returns the differing fields in fixed order. Candidate fields that
// are absent never surface; equal fields never surface.
func compare(book *catalog.Book, candidate *openlibrary.Candidate) []Difference {
	var diffs []Difference
	for _, field := range fieldNames {
		if diff, ok := compareField(field, book, candidate); ok {
			diffs = append(diffs, diff)
		}
	}
	return diffs
}

func compareField(field string, book *catalog.Book, candidate *openlibrary.Candidate) (Difference, bool) {
	switch field {
	case "title":
		return stringDifference(field, book.Title, candidate.Title)
	case "authors":
		return stringDifference(field, book.Authors, candidate.Authors)
	case "publisher":
		return stringDifference(field, book.Publisher, candidate.Publisher)
	case "description":
		return stringDifference(field, book.Description, candidate.Description)
	case "page_count":
		if candidate.PageCount == nil || book.PageCount == *candidate.PageCount {
			return Difference{}, false
		}
		return Difference{
			Field:       field,
			Label:       FieldLabel(field),
			Local:       strconv.Itoa(book.PageCount),
			Remote:      strconv.Itoa(*candidate.PageCount),
			remoteValue: *candidate.PageCount,
		}, true
	case "published_at":
		if candidate.PublishedAt == nil {
			return Difference{}, false
		}
		local := formatDate(book.PublishedAt)
		remote := formatDate(candidate.PublishedAt)
		if local == remote {
			return Difference{}, false
		}
		return Difference{
			Field:       field,
			Label:       FieldLabel(field),
			Local:       local,
			Remote:      remote,
			remoteValue: *candidate.PublishedAt,
		}, true
	case "categories":
		if candidate.Categories == nil {
			return Difference{}, false
		}
		if categorySetsEqual(book.Categories, *candidate.Categories) {
			return Difference{}, false
		}
		return Difference{
			Field:       field,
			Label:       FieldLabel(field),
			Local:       book.Categories,
			Remote:      *candidate.Categories,
			remoteValue: *candidate.Categories,
		}, true
	}
	return Difference{}, false
}

func stringDifference(field, local string, remote *string) (Difference, bool) {
	if remote == nil || local == *remote {
		return Difference{}, false
	}
	return Difference{
		Field:       field,
		Label:       FieldLabel(field),
		Local:       local,
		Remote:      *remote,
		remoteValue: *remote,
	}, true
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

// categorySetsEqual compares comma-separated category lists as sets, so
// ordering and spacing differences are not surfaced for resolution.
func categorySetsEqual(local, remote string) bool {
	return setEqual(splitCategories(local), splitCategories(remote))
}

func splitCategories(value string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for key := range a {
		if _, ok := b[key]; !ok {
			return false
		}
	}
	return true
}
