// Package logs reads the daemon log for the CLI.
//
// The daemon writes one file per run and points archivist.log at the newest
// one. Follow re-resolves that pointer while polling, so following survives a
// daemon restart and picks up the new run from its first line.
package logs
