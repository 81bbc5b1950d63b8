// Package activity records every data modification — imports, edits,
// verifications, backups — as JSON Lines in an append-only file shared by
// the CLI and the agent-tool server. Advisory file locking keeps concurrent
// appends from two processes whole-line atomic.
package activity
