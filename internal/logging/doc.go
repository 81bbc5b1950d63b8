// Package logging builds the slog loggers used across Oakwood.
//
// It centralizes level parsing, console/JSON handler selection, and file
// output wiring so the CLI and the agent-tool server log consistently.
// Attr helper functions keep call sites short and uniform.
package logging
