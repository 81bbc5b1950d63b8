// Package main hosts the Oakwood CLI entrypoint and command graph.
//
// The Cobra-based command tree covers catalogue browsing, Bookshelf CSV
// imports, Open Library verification, backups, the activity log, and the
// agent-tool RPC server. It centralizes configuration resolution and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
