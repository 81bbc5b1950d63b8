// Package backup creates, lists, and restores tar.gz archives of the
// catalogue database.
package backup
