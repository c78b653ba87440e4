// Package replication places one physical download into every archive that
// tracks its owner.
//
// The primary archive holds the file the worker moved out of staging. Every
// other tracking archive receives a hard link at the same relative path, or a
// verified copy when the archive lives on another filesystem. An existing
// target counts as satisfied and failures never roll back the primary.
//
// The Reconciler repairs drift after the fact: downloads whose primary file
// vanished are removed from the catalog so they are fetched again, and missing
// replicas are re-created.
package replication
