// Package workflow runs the archive daemon's background loops.
//
// The Manager owns three kinds of goroutines: one scan lane per service with
// tracked accounts, a pool of download workers, and a reconcile loop. Workers
// claim undownloaded content through a claim.Set so no item is fetched twice,
// download it into a private staging directory, move it into the owner's
// primary archive, record it, and fan it out to the remaining archives.
//
// A failed item is skipped for the rest of the process lifetime. An owner
// tracked by no archive is an invariant violation: the worker that hit it
// logs an alert and exits with ErrNoTrackingArchive while the rest of the
// pool keeps running.
package workflow
