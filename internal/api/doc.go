// Package api defines wire-format types and converters shared by the HTTP
// dashboard and the CLI's --json output. It translates store records and
// runtime summaries into transport-friendly DTOs so consumers never couple to
// internal types.
//
// DTOs use camelCase JSON tags. Timestamps are RFC3339 with milliseconds in
// UTC. LibraryService wraps the read-only store queries and normalizes
// limits so every surface applies the same bounds.
package api
