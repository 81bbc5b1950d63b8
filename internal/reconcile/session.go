package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oakwood/internal/catalog"
	"oakwood/internal/openlibrary"
)

// State identifies the phase a reconciliation session is in.
type State string

const (
	// StateResolving means differing fields remain to be decided.
	StateResolving State = "resolving"
	// StateSummary means every difference is decided and the session is
	// ready to commit.
	StateSummary State = "summary"
	// StateCommitted means the staged decisions have been applied.
	StateCommitted State = "committed"
	// StateCancelled means the session was abandoned; nothing was applied.
	StateCancelled State = "cancelled"
)

// Decision is the choice a caller makes for one differing field.
type Decision string

const (
	DecisionKeepLocal Decision = "keep-local"
	DecisionUseRemote Decision = "use-remote"
	DecisionSkip      Decision = "skip"
)

var (
	// ErrNoBook is returned when the ISBN has no local record.
	ErrNoBook = errors.New("no book with that isbn")
	// ErrNotResolving marks a Resolve call outside the resolving phase.
	ErrNotResolving = errors.New("session is not resolving")
	// ErrNotReady marks a Commit call before all fields are resolved.
	ErrNotReady = errors.New("session has unresolved fields")
	// ErrFinished marks use of a committed or cancelled session.
	ErrFinished = errors.New("session already finished")
)

// Source is the external lookup the session verifies against.
type Source interface {
	Lookup(ctx context.Context, isbn string) (*openlibrary.Candidate, error)
}

// Session drives one compare/resolve/commit pass for a single record.
// Decisions are staged, never applied, until Commit; abandoning a session at
// any point leaves the record untouched.
type Session struct {
	store *catalog.Store
	book  *catalog.Book

	state  State
	diffs  []Difference
	index  int
	staged map[string]any

	updated []string
	skipped []string
}

// Begin loads the local record and the verification candidate, computes the
// ordered difference list, and returns a session ready for resolution. A
// lookup failure is returned as-is (check openlibrary.ErrNotFound to
// distinguish absence from transport trouble); the record is not mutated.
func Begin(ctx context.Context, store *catalog.Store, source Source, isbn string) (*Session, error) {
	book, err := store.GetByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("isbn %s: %w", isbn, ErrNoBook)
	}

	candidate, err := source.Lookup(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("verification lookup: %w", err)
	}

	session := &Session{
		store:  store,
		book:   book,
		diffs:  compare(book, candidate),
		staged: make(map[string]any),
		state:  StateResolving,
	}
	if len(session.diffs) == 0 {
		session.state = StateSummary
	}
	return session, nil
}

// Book returns the local record the session operates on.
func (s *Session) Book() *catalog.Book {
	return s.book
}

// State returns the current phase.
func (s *Session) State() State {
	return s.state
}

// Differences returns every differing field in the fixed comparison order.
func (s *Session) Differences() []Difference {
	return s.diffs
}

// Current returns the field awaiting a decision. ok is false outside the
// resolving phase.
func (s *Session) Current() (Difference, bool) {
	if s.state != StateResolving || s.index >= len(s.diffs) {
		return Difference{}, false
	}
	return s.diffs[s.index], true
}

// Position reports the 1-based index of the current field and the total
// number of differing fields.
func (s *Session) Position() (int, int) {
	return s.index + 1, len(s.diffs)
}

// Resolve records the decision for the current field and advances to the
// next one. After the last field the session moves to the summary phase.
// Use-remote decisions are staged; nothing touches the store here.
func (s *Session) Resolve(decision Decision) error {
	switch s.state {
	case StateResolving:
	case StateCommitted, StateCancelled:
		return ErrFinished
	default:
		return ErrNotResolving
	}

	diff := s.diffs[s.index]
	switch decision {
	case DecisionUseRemote:
		s.staged[diff.Field] = diff.remoteValue
		s.updated = append(s.updated, diff.Label)
	case DecisionKeepLocal, DecisionSkip:
		s.skipped = append(s.skipped, diff.Label)
	default:
		return fmt.Errorf("unknown decision %q", decision)
	}

	s.index++
	if s.index >= len(s.diffs) {
		s.state = StateSummary
	}
	return nil
}

// AutoResolve applies one decision to every remaining field. Non-interactive
// callers use this to accept or reject the whole candidate in one step.
func (s *Session) AutoResolve(decision Decision) error {
	for s.state == StateResolving {
		if err := s.Resolve(decision); err != nil {
			return err
		}
	}
	return nil
}

// Result reports what a commit changed.
type Result struct {
	Updated    []string
	Skipped    []string
	VerifiedAt time.Time
}

// Commit applies all staged use-remote values in a single update together
// with verified=true and last_verified=now. This is the session's only
// mutating step; calling it before every field is resolved is a contract
// violation and nothing is applied.
func (s *Session) Commit(ctx context.Context) (*Result, error) {
	switch s.state {
	case StateSummary:
	case StateCommitted, StateCancelled:
		return nil, ErrFinished
	default:
		return nil, fmt.Errorf("%w: %d of %d resolved", ErrNotReady, s.index, len(s.diffs))
	}

	now := time.Now().UTC()
	updates := make(map[string]any, len(s.staged)+2)
	for field, value := range s.staged {
		updates[field] = value
	}
	updates["verified"] = true
	updates["last_verified"] = now

	if _, err := s.store.UpdateFields(ctx, s.book.ISBN, updates); err != nil {
		return nil, fmt.Errorf("commit reconciliation: %w", err)
	}

	s.state = StateCommitted
	return &Result{
		Updated:    append([]string(nil), s.updated...),
		Skipped:    append([]string(nil), s.skipped...),
		VerifiedAt: now,
	}, nil
}

// Cancel abandons the session, discarding all staged decisions. Safe to call
// in any state; a committed session stays committed.
func (s *Session) Cancel() {
	if s.state == StateCommitted {
		return
	}
	s.state = StateCancelled
	s.staged = make(map[string]any)
}
