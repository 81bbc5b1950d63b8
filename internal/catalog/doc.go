// Package catalog persists the book catalogue in SQLite and exposes the
// record store contract the rest of the system builds on.
//
// ISBN is the unique key: Upsert is the only de-duplication primitive, and
// UpdateFields performs allow-listed partial updates used by reconciliation
// commits and manual edits. The single connection runs with WAL journaling
// and a busy timeout so one writer at a time proceeds while readers stay
// concurrent, which is all the CLI plus agent-tool server arrangement needs.
//
// Dates are stored as ISO strings and booleans as integers; scan helpers
// convert both directions so callers only see Go types.
package catalog
