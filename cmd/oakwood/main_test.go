package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	csvPath    string
}

func setupCLITestEnv(t *testing.T, openLibraryURL string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	if openLibraryURL == "" {
		openLibraryURL = "http://127.0.0.1:1"
	}

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[openlibrary]
base_url = %q
request_timeout = 5

[server]
socket_path = %q
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		openLibraryURL,
		filepath.Join(base, "oakwood.sock"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	csvPath := filepath.Join(base, "export.csv")
	csv := "ISBN,Title,Authors,Bookshelf,Page Count,Date Added\n" +
		"9780141439518,Pride and Prejudice,Jane Austen,Classics,480,2024-01-15\n" +
		"9780547928227,The Hobbit,J.R.R. Tolkien,Fantasy,310,2024-02-20\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, csvPath: csvPath}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, env, nil, args...)
}

func runCLIWithInput(t *testing.T, env *cliTestEnv, input io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if input != nil {
		cmd.SetIn(input)
	}
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIAddListShowEdit(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env, "add",
		"--isbn", "9780140449136",
		"--title", "The Odyssey",
		"--authors", "Homer",
		"--shelf", "Classics",
		"--pages", "541")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Added The Odyssey") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "The Odyssey") || !strings.Contains(out, "1 book(s)") {
		t.Fatalf("unexpected list output: %q", out)
	}

	out, _, err = runCLI(t, env, "show", "9780140449136")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Homer") || !strings.Contains(out, "541") {
		t.Fatalf("unexpected show output: %q", out)
	}

	out, _, err = runCLI(t, env, "edit", "9780140449136", "read=true", "pages_read=120")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "Updated 9780140449136") {
		t.Fatalf("unexpected edit output: %q", out)
	}

	out, _, err = runCLI(t, env, "show", "9780140449136")
	if err != nil {
		t.Fatalf("show after edit: %v", err)
	}
	if !strings.Contains(out, "Read:") {
		t.Fatalf("expected read flag in show output: %q", out)
	}

	if _, _, err := runCLI(t, env, "edit", "9780140449136", "nonsense=1"); err == nil {
		t.Fatal("expected error for unknown field")
	}
	if _, _, err := runCLI(t, env, "show", "9999999999"); err == nil {
		t.Fatal("expected error for unknown isbn")
	}
}

func TestCLIImportAndStats(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, env, "import", env.csvPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 book(s), skipped 0 duplicate(s)") {
		t.Fatalf("unexpected import output: %q", out)
	}

	// Importing again skips everything.
	out, _, err = runCLI(t, env, "import", env.csvPath)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !strings.Contains(out, "Imported 0 book(s), skipped 2 duplicate(s)") {
		t.Fatalf("unexpected re-import output: %q", out)
	}

	out, _, err = runCLI(t, env, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Books: 2") || !strings.Contains(out, "Classics") {
		t.Fatalf("unexpected stats output: %q", out)
	}

	out, _, err = runCLI(t, env, "shelves")
	if err != nil {
		t.Fatalf("shelves: %v", err)
	}
	if !strings.Contains(out, "Classics") || !strings.Contains(out, "Fantasy") {
		t.Fatalf("unexpected shelves output: %q", out)
	}

	out, _, err = runCLI(t, env, "list", "--recent")
	if err != nil {
		t.Fatalf("list --recent: %v", err)
	}
	if strings.Index(out, "The Hobbit") > strings.Index(out, "Pride and Prejudice") {
		t.Fatalf("expected newest-first ordering: %q", out)
	}

	out, _, err = runCLI(t, env, "search", "tolkien")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "The Hobbit") || strings.Contains(out, "Pride and Prejudice") {
		t.Fatalf("unexpected search output: %q", out)
	}

	out, _, err = runCLI(t, env, "activity")
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if !strings.Contains(out, "import") {
		t.Fatalf("expected import entries in activity output: %q", out)
	}
}

func newOpenLibraryStub(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("bibkeys") != "ISBN:9780141439518" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"ISBN:9780141439518":{
            "title":"Pride and Prejudice",
            "number_of_pages":432,
            "authors":[{"name":"Jane Austen"}]
        }}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCLIVerifyNonInteractive(t *testing.T) {
	server := newOpenLibraryStub(t)
	env := setupCLITestEnv(t, server.URL)

	if _, _, err := runCLI(t, env, "import", env.csvPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, env, "verify", "9780141439518", "--yes")
	if err != nil {
		t.Fatalf("verify --yes: %v", err)
	}
	if !strings.Contains(out, "Updated: Page Count") || !strings.Contains(out, "Marked verified") {
		t.Fatalf("unexpected verify output: %q", out)
	}

	out, _, err = runCLI(t, env, "show", "9780141439518")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "432") {
		t.Fatalf("expected remote page count applied: %q", out)
	}

	if _, _, err := runCLI(t, env, "verify", "9780547928227", "--yes"); err == nil {
		t.Fatal("expected lookup failure for isbn missing upstream")
	}
}

func TestCLIVerifyInteractiveQuitLeavesRecordUnchanged(t *testing.T) {
	server := newOpenLibraryStub(t)
	env := setupCLITestEnv(t, server.URL)

	if _, _, err := runCLI(t, env, "import", env.csvPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLIWithInput(t, env, strings.NewReader("q\n"), "verify", "9780141439518")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out, "cancelled") {
		t.Fatalf("expected cancel message: %q", out)
	}

	out, _, err = runCLI(t, env, "show", "9780141439518")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "480") || strings.Contains(out, "432") {
		t.Fatalf("expected record unchanged: %q", out)
	}
}

func TestCLIVerifyInteractiveUseRemote(t *testing.T) {
	server := newOpenLibraryStub(t)
	env := setupCLITestEnv(t, server.URL)

	if _, _, err := runCLI(t, env, "import", env.csvPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLIWithInput(t, env, strings.NewReader("2\n"), "verify", "9780141439518")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(out, "Updated: Page Count") {
		t.Fatalf("unexpected verify output: %q", out)
	}
}

func TestCLIBackupCreateListRestore(t *testing.T) {
	env := setupCLITestEnv(t, "")

	if _, _, err := runCLI(t, env, "import", env.csvPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, env, "backup", "create")
	if err != nil {
		t.Fatalf("backup create: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Fatalf("unexpected backup output: %q", out)
	}

	out, _, err = runCLI(t, env, "backup", "list")
	if err != nil {
		t.Fatalf("backup list: %v", err)
	}
	if !strings.Contains(out, "oakwood-backup-") {
		t.Fatalf("unexpected backup list output: %q", out)
	}

	archive := ""
	for _, field := range strings.Fields(out) {
		if strings.HasPrefix(field, "oakwood-backup-") {
			archive = field
			break
		}
	}
	if archive == "" {
		t.Fatalf("could not find archive name in output: %q", out)
	}

	out, _, err = runCLI(t, env, "backup", "restore", archive)
	if err != nil {
		t.Fatalf("backup restore: %v", err)
	}
	if !strings.Contains(out, "Restored database") {
		t.Fatalf("unexpected restore output: %q", out)
	}

	out, _, err = runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list after restore: %v", err)
	}
	if !strings.Contains(out, "2 book(s)") {
		t.Fatalf("expected catalogue intact after restore: %q", out)
	}
}

func TestCLIConfigInit(t *testing.T) {
	env := setupCLITestEnv(t, "")
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	out, _, err := runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected config init output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error without --overwrite")
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
