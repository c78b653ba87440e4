// Package preflight checks the filesystem paths and external binaries the
// daemon needs before it starts working.
//
// The daemon runs RunAll and CheckSystemDeps at startup and refuses to start
// when the staging directory, the state directory, or a required binary is
// unusable. An archive root that fails is reported but does not block startup,
// since removable storage may come back later; downloads into it fail and are
// retried on the next claim. The CLI status command shows the same results.
package preflight
