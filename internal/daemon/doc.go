// Package daemon owns the lifecycle of the long-running archivist process.
//
// It ties the catalog and the workflow manager together behind a flock-based
// single-instance lock. The download claim set lives in process memory, so
// two daemons against the same catalog could hand the same item to two
// workers; the lock rules that out. CLI commands that mutate shared state
// use Probe to find out whether a daemon currently holds it.
//
// Keep orchestration here. Scanning, claiming, and replication belong to
// their own packages.
package daemon
