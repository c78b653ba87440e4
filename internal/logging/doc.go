// Package logging assembles structured slog loggers and formatting helpers used
// across archivist.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so scan and download code can tag log
// lines with service, account, content, and worker identifiers. The console
// handler lifts those identifiers into a one-line subject and prints the
// remaining fields as an indented list. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
