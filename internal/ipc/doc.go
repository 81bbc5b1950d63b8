// Package ipc exposes the catalogue over JSON-RPC Unix sockets and ships the
// matching client used by the CLI and local agent tools.
//
// It owns socket lifecycle management, request/response DTOs, and conversions
// between catalogue models and lightweight wire representations. Write access
// is a server-level capability: a read-only server rejects every mutating
// call with ErrReadOnly.
package ipc
