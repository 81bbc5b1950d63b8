package activity

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// Action identifies what kind of change an entry records.
type Action string

const (
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionImport  Action = "import"
	ActionBackup  Action = "backup"
	ActionRestore Action = "restore"
	ActionVerify  Action = "verify"
)

// Entry is one line in the activity log.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Action    Action         `json:"action"`
	Source    string         `json:"source"`
	ISBN      string         `json:"isbn,omitempty"`
	Title     string         `json:"title,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Log appends data-modification entries to a JSON Lines file. An advisory
// file lock serializes appends so the CLI and the agent-tool server, running
// as separate processes, never interleave partial lines.
type Log struct {
	path string
}

// NewLog returns a log writing to path. The file is created on first append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Record builds and appends an entry stamped with the current time.
func (l *Log) Record(action Action, source, isbn, title string, details map[string]any) error {
	return l.Append(Entry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Action:    action,
		Source:    source,
		ISBN:      isbn,
		Title:     title,
		Details:   details,
	})
}

// Append writes one entry under an exclusive advisory lock.
func (l *Log) Append(entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	lock := flock.New(l.path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire activity lock: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first. Unparseable lines
// are skipped so a damaged log never blocks the caller.
func (l *Log) Recent(limit int) ([]Entry, error) {
	lock := flock.New(l.path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("acquire activity lock: %w", err)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
