package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"oakwood/internal/catalog"
	"oakwood/internal/openlibrary"
	"oakwood/internal/reconcile"
	"oakwood/internal/testsupport"
)

type sourceFunc func(ctx context.Context, isbn string) (*openlibrary.Candidate, error)

func (f sourceFunc) Lookup(ctx context.Context, isbn string) (*openlibrary.Candidate, error) {
	return f(ctx, isbn)
}

func staticSource(candidate *openlibrary.Candidate) sourceFunc {
	return func(ctx context.Context, isbn string) (*openlibrary.Candidate, error) {
		return candidate, nil
	}
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func matchingCandidate(book *catalog.Book) *openlibrary.Candidate {
	return &openlibrary.Candidate{
		Title:     strPtr(book.Title),
		Authors:   strPtr(book.Authors),
		PageCount: intPtr(book.PageCount),
		Publisher: strPtr(book.Publisher),
	}
}

func TestBeginNoDifferencesGoesStraightToSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000001", "Equal Book"))

	session, err := reconcile.Begin(ctx, store, staticSource(matchingCandidate(book)), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if session.State() != reconcile.StateSummary {
		t.Fatalf("expected summary state, got %q", session.State())
	}
	if len(session.Differences()) != 0 {
		t.Fatalf("expected zero differences, got %#v", session.Differences())
	}

	result, err := session.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(result.Updated) != 0 {
		t.Fatalf("expected zero changed fields, got %v", result.Updated)
	}

	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if !stored.Verified || stored.LastVerified == nil {
		t.Fatal("commit with zero changes must still mark the record verified")
	}
	if stored.Title != "Equal Book" {
		t.Fatalf("title must be unchanged, got %q", stored.Title)
	}
}

func TestSingleDifferingFieldUseRemote(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook("9781000000002", "Counted")
	book.PageCount = 300
	testsupport.SeedBook(t, store, book)

	candidate := matchingCandidate(book)
	candidate.PageCount = intPtr(320)

	session, err := reconcile.Begin(ctx, store, staticSource(candidate), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	diffs := session.Differences()
	if len(diffs) != 1 || diffs[0].Field != "page_count" {
		t.Fatalf("expected exactly page_count to differ, got %#v", diffs)
	}
	if diffs[0].Local != "300" || diffs[0].Remote != "320" {
		t.Fatalf("unexpected display values: %#v", diffs[0])
	}

	if err := session.Resolve(reconcile.DecisionUseRemote); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	result, err := session.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if diff := cmp.Diff([]string{"Page Count"}, result.Updated); diff != "" {
		t.Fatalf("unexpected updated fields (-want +got):\n%s", diff)
	}

	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if stored.PageCount != 320 || !stored.Verified {
		t.Fatalf("commit not applied: %#v", stored)
	}
}

func TestDifferencesFollowFixedOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000003", "Ordered"))

	candidate := &openlibrary.Candidate{
		Description: strPtr("different description"),
		Title:       strPtr("Different Title"),
		PageCount:   intPtr(999),
	}

	session, err := reconcile.Begin(ctx, store, staticSource(candidate), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	var got []string
	for _, diff := range session.Differences() {
		got = append(got, diff.Field)
	}
	want := []string{"title", "page_count", "description"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected field order (-want +got):\n%s", diff)
	}
}

func TestCancelMidResolvingLeavesRecordUnchanged(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000004", "Untouched"))
	before, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}

	candidate := matchingCandidate(book)
	candidate.Title = strPtr("Remote Title")
	candidate.Publisher = strPtr("Remote House")

	session, err := reconcile.Begin(ctx, store, staticSource(candidate), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := session.Resolve(reconcile.DecisionUseRemote); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	session.Cancel()

	if _, err := session.Commit(ctx); !errors.Is(err, reconcile.ErrFinished) {
		t.Fatalf("expected ErrFinished after cancel, got %v", err)
	}

	after, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("record mutated by cancelled session (-before +after):\n%s", diff)
	}
}

func TestCommitBeforeResolutionCompleteIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000005", "Partial"))
	candidate := matchingCandidate(book)
	candidate.Title = strPtr("Other")
	candidate.Publisher = strPtr("Other House")

	session, err := reconcile.Begin(ctx, store, staticSource(candidate), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := session.Resolve(reconcile.DecisionUseRemote); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if _, err := session.Commit(ctx); !errors.Is(err, reconcile.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if stored.Title != "Partial" || stored.Verified {
		t.Fatalf("rejected commit must not mutate: %#v", stored)
	}
}

func TestLookupNotFoundLeavesRecordUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000006", "Missing Remote"))

	source := sourceFunc(func(ctx context.Context, isbn string) (*openlibrary.Candidate, error) {
		return nil, fmt.Errorf("isbn %s: %w", isbn, openlibrary.ErrNotFound)
	})

	_, err := reconcile.Begin(ctx, store, source, book.ISBN)
	if !errors.Is(err, openlibrary.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if stored.Verified || stored.LastVerified != nil {
		t.Fatalf("failed lookup must not change verification state: %#v", stored)
	}
}

func TestBeginUnknownISBN(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := reconcile.Begin(context.Background(), store, staticSource(&openlibrary.Candidate{}), "nope")
	if !errors.Is(err, reconcile.ErrNoBook) {
		t.Fatalf("expected ErrNoBook, got %v", err)
	}
}

func TestSkippedFieldsStillCommitVerified(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000007", "Skipper"))
	candidate := matchingCandidate(book)
	candidate.Title = strPtr("Remote Title")
	candidate.Authors = strPtr("Remote Author")

	session, err := reconcile.Begin(ctx, store, staticSource(candidate), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := session.Resolve(reconcile.DecisionSkip); err != nil {
		t.Fatalf("Resolve skip failed: %v", err)
	}
	if err := session.Resolve(reconcile.DecisionKeepLocal); err != nil {
		t.Fatalf("Resolve keep-local failed: %v", err)
	}

	result, err := session.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if len(result.Updated) != 0 {
		t.Fatalf("nothing should change, got %v", result.Updated)
	}
	if diff := cmp.Diff([]string{"Title", "Authors"}, result.Skipped); diff != "" {
		t.Fatalf("unexpected skipped fields (-want +got):\n%s", diff)
	}

	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if stored.Title != "Skipper" || !stored.Verified {
		t.Fatalf("skip must leave values but still verify: %#v", stored)
	}
}

func TestAutoResolveUseRemote(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.SeedBook(t, store, testsupport.NewBook("9781000000008", "Automatic"))
	published := time.Date(2010, time.April, 1, 0, 0, 0, 0, time.UTC)
	candidate := &openlibrary.Candidate{
		Title:       strPtr("Automatic, Revised"),
		PageCount:   intPtr(512),
		PublishedAt: &published,
	}

	session, err := reconcile.Begin(ctx, store, staticSource(candidate), book.ISBN)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if err := session.AutoResolve(reconcile.DecisionUseRemote); err != nil {
		t.Fatalf("AutoResolve failed: %v", err)
	}
	if _, err := session.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	stored, err := store.GetByISBN(ctx, book.ISBN)
	if err != nil {
		t.Fatalf("GetByISBN failed: %v", err)
	}
	if stored.Title != "Automatic, Revised" || stored.PageCount != 512 {
		t.Fatalf("auto-resolve not applied: %#v", stored)
	}
	if stored.PublishedAt == nil || !stored.PublishedAt.Equal(published) {
		t.Fatalf("publish date not applied: %#v", stored.PublishedAt)
	}
}
