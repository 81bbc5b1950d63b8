// Package openlibrary implements the verification source: a read-only
// client for the Open Library Books API keyed by ISBN.
//
// Lookup returns a Candidate whose pointer fields distinguish "missing"
// from "empty", and a genuine not-found wraps ErrNotFound while transport
// failures do not, letting the reconciliation flow tell the user to retry
// versus accept absence.
package openlibrary
