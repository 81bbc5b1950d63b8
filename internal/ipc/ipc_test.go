package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"oakwood/internal/activity"
	"oakwood/internal/ipc"
	"oakwood/internal/logging"
	"oakwood/internal/openlibrary"
	"oakwood/internal/reconcile"
	"oakwood/internal/testsupport"
)

type sourceFunc func(ctx context.Context, isbn string) (*openlibrary.Candidate, error)

func (f sourceFunc) Lookup(ctx context.Context, isbn string) (*openlibrary.Candidate, error) {
	return f(ctx, isbn)
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func startServer(t *testing.T, opts ipc.Options) (*ipc.Client, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	socket := cfg.Server.SocketPath

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, socket, opts)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping ipc server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, socket
}

func TestServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWrites())
	store := testsupport.MustOpenStore(t, cfg)
	log := activity.NewLog(filepath.Join(cfg.Paths.LogDir, "activity.log"))
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}

	source := sourceFunc(func(_ context.Context, isbn string) (*openlibrary.Candidate, error) {
		if isbn != "9780140449136" {
			return nil, openlibrary.ErrNotFound
		}
		return &openlibrary.Candidate{
			Title:     strPtr("The Odyssey"),
			PageCount: intPtr(541),
		}, nil
	})

	client, _ := startServer(t, ipc.Options{
		Store:       store,
		Source:      source,
		Activity:    log,
		AllowWrites: true,
		Logger:      logging.NewNop(),
	})

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !ping.AllowWrites {
		t.Fatal("expected write-enabled server")
	}

	addResp, err := client.AddBook(ipc.Book{
		ISBN:      "9780140449136",
		Title:     "The Odyssey",
		Bookshelf: "Classics",
		Authors:   "Homer",
		PageCount: 500,
		DateAdded: "2024-03-01",
	})
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if addResp.Outcome != "inserted" {
		t.Fatalf("expected inserted, got %s", addResp.Outcome)
	}

	getResp, err := client.GetBook("9780140449136")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if !getResp.Found || getResp.Book.Title != "The Odyssey" {
		t.Fatalf("unexpected get response: %#v", getResp)
	}
	if getResp.Book.DateAdded != "2024-03-01" {
		t.Fatalf("unexpected date_added: %s", getResp.Book.DateAdded)
	}

	missing, err := client.GetBook("9780000000000")
	if err != nil {
		t.Fatalf("GetBook missing: %v", err)
	}
	if missing.Found {
		t.Fatal("expected Found=false for unknown isbn")
	}

	testsupport.SeedBook(t, store, testsupport.NewBook("9781234567897", "Other Book"))

	listResp, err := client.ListBooks(ipc.ListBooksRequest{})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(listResp.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(listResp.Books))
	}

	filtered, err := client.ListBooks(ipc.ListBooksRequest{Shelf: "Classics"})
	if err != nil {
		t.Fatalf("ListBooks filtered: %v", err)
	}
	if len(filtered.Books) != 1 || filtered.Books[0].ISBN != "9780140449136" {
		t.Fatalf("unexpected filtered listing: %#v", filtered.Books)
	}

	searchResp, err := client.SearchBooks("odyssey")
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(searchResp.Books) != 1 || searchResp.Books[0].ISBN != "9780140449136" {
		t.Fatalf("unexpected search result: %#v", searchResp.Books)
	}

	shelves, err := client.ListShelves()
	if err != nil {
		t.Fatalf("ListShelves: %v", err)
	}
	if len(shelves.Shelves) != 2 {
		t.Fatalf("expected 2 shelves, got %v", shelves.Shelves)
	}

	stats, err := client.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.BookCount != 2 || stats.ShelfCounts["Classics"] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	updResp, err := client.UpdateBook("9780140449136", map[string]string{
		"read":       "true",
		"pages_read": "120",
	})
	if err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}
	if !updResp.Updated {
		t.Fatal("expected update to match a row")
	}
	if _, err := client.UpdateBook("9780140449136", map[string]string{"nonsense": "x"}); err == nil {
		t.Fatal("expected error for unknown field")
	}

	verifyResp, err := client.VerifyBook(ipc.VerifyBookRequest{ISBN: "9780140449136", AcceptRemote: true})
	if err != nil {
		t.Fatalf("VerifyBook: %v", err)
	}
	if len(verifyResp.Updated) != 1 || verifyResp.Updated[0] != "Page Count" {
		t.Fatalf("unexpected verify result: %#v", verifyResp)
	}
	verified, err := client.GetBook("9780140449136")
	if err != nil {
		t.Fatalf("GetBook after verify: %v", err)
	}
	if !verified.Book.Verified || verified.Book.PageCount != 541 {
		t.Fatalf("verify did not apply: %#v", verified.Book)
	}

	if _, err := client.VerifyBook(ipc.VerifyBookRequest{ISBN: "9781234567897"}); err == nil {
		t.Fatal("expected lookup failure for unknown isbn")
	}

	csvPath := filepath.Join(t.TempDir(), "export.csv")
	csv := "ISBN,Title,Authors,Bookshelf\n" +
		"9780547928227,The Hobbit,J.R.R. Tolkien,Fantasy\n" +
		"9780140449136,The Odyssey,Homer,Classics\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	importResp, err := client.ImportCSV(csvPath)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if importResp.Inserted != 1 || importResp.Skipped != 1 {
		t.Fatalf("unexpected import summary: %#v", importResp)
	}

	entries, err := log.Recent(10)
	if err != nil {
		t.Fatalf("activity.Recent: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected activity entries from mutating calls")
	}
}

func TestReadOnlyServerRejectsWrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedBook(t, store, testsupport.NewBook("9781111111111", "Readable"))

	client, _ := startServer(t, ipc.Options{
		Store:  store,
		Logger: logging.NewNop(),
	})

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if ping.AllowWrites {
		t.Fatal("expected read-only server")
	}

	getResp, err := client.GetBook("9781111111111")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if !getResp.Found {
		t.Fatal("expected read path to work")
	}

	if _, err := client.AddBook(ipc.Book{ISBN: "9782222222222", Title: "Nope"}); err == nil {
		t.Fatal("expected AddBook to be rejected")
	} else if !strings.Contains(err.Error(), ipc.ErrReadOnly.Error()) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.UpdateBook("9781111111111", map[string]string{"read": "true"}); err == nil {
		t.Fatal("expected UpdateBook to be rejected")
	}
	if _, err := client.ImportCSV("/tmp/whatever.csv"); err == nil {
		t.Fatal("expected ImportCSV to be rejected")
	}
	if _, err := client.VerifyBook(ipc.VerifyBookRequest{ISBN: "9781111111111"}); err == nil {
		t.Fatal("expected VerifyBook to be rejected")
	}
}

func TestVerifyBookWithoutSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWrites())
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedBook(t, store, testsupport.NewBook("9781111111111", "Readable"))

	client, _ := startServer(t, ipc.Options{
		Store:       store,
		AllowWrites: true,
		Logger:      logging.NewNop(),
	})

	if _, err := client.VerifyBook(ipc.VerifyBookRequest{ISBN: "9781111111111"}); err == nil {
		t.Fatal("expected error when no verification source is configured")
	}
}

var _ reconcile.Source = sourceFunc(nil)
