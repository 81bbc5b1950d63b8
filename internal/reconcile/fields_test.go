package reconcile

import (
	"testing"

	"oakwood/internal/catalog"
	"oakwood/internal/openlibrary"
)

func strp(v string) *string { return &v }

func TestCategoriesCompareAsSets(t *testing.T) {
	book := &catalog.Book{Categories: "Fiction, Romance"}
	candidate := &openlibrary.Candidate{Categories: strp("Romance,  Fiction")}

	if diffs := compare(book, candidate); len(diffs) != 0 {
		t.Fatalf("reordered categories must not differ, got %#v", diffs)
	}

	candidate.Categories = strp("Romance, History")
	diffs := compare(book, candidate)
	if len(diffs) != 1 || diffs[0].Field != "categories" {
		t.Fatalf("expected categories difference, got %#v", diffs)
	}
}

func TestAbsentCandidateFieldsNeverSurface(t *testing.T) {
	book := &catalog.Book{Title: "Local", Authors: "Someone", PageCount: 100}
	candidate := &openlibrary.Candidate{}

	if diffs := compare(book, candidate); len(diffs) != 0 {
		t.Fatalf("absent candidate values must not surface, got %#v", diffs)
	}
}

func TestStringComparisonIsCaseSensitive(t *testing.T) {
	book := &catalog.Book{Title: "the hobbit"}
	candidate := &openlibrary.Candidate{Title: strp("The Hobbit")}

	diffs := compare(book, candidate)
	if len(diffs) != 1 || diffs[0].Field != "title" {
		t.Fatalf("case change should surface as a difference, got %#v", diffs)
	}
}

func TestFieldLabel(t *testing.T) {
	cases := map[string]string{
		"page_count":   "Page Count",
		"published_at": "Published At",
		"title":        "Title",
	}
	for field, want := range cases {
		if got := FieldLabel(field); got != want {
			t.Errorf("FieldLabel(%q) = %q, want %q", field, got, want)
		}
	}
}
