// Package importer reads Bookshelf app CSV exports into the catalogue.
//
// Columns are matched by header name so column order in the export does not
// matter. Each row yields exactly one outcome — inserted, skipped-duplicate,
// or error — reported in file order; duplicates are detected by ISBN against
// the store and are never overwritten. Only an unreadable file or a missing
// ISBN column aborts the pass.
package importer
