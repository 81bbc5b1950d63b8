// Package reconcile merges an external verification candidate into a local
// book record through an explicit compare/resolve/commit session.
//
// Begin fetches the candidate and computes the differing fields in a fixed
// order (title, authors, page_count, publisher, published_at, categories,
// description) using type-appropriate equality: case-sensitive strings,
// numeric page counts, date comparison for published_at, and set equality
// for categories. Fields the candidate does not supply never surface.
//
// Callers walk the differences with Resolve, choosing keep-local,
// use-remote, or skip per field; decisions are staged only. Commit is the
// single mutating step: it applies every staged value plus the verification
// timestamp in one update. A session abandoned before Commit leaves the
// record exactly as it was. Front ends render the session's state; they hold
// no merge logic of their own, and non-interactive callers use AutoResolve
// to decide every field at once.
package reconcile
