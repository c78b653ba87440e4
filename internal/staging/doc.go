// Package staging manages the scratch area download workers write into
// before a finished file is moved into its primary archive.
//
// Each attempt gets its own directory under the staging root. The daemon
// clears the root at startup, since no attempt survives a restart, and the
// CLI can list or prune leftovers while the daemon is stopped.
package staging
