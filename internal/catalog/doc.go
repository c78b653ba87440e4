// Package catalog persists tracked accounts, their content, and completed
// downloads in SQLite.
//
// Accounts and content carry a scan record (depth plus scan time). Writes go
// through UpsertAccount and UpsertContent, which take an acceptance policy
// evaluated inside the write transaction; the freshness package supplies the
// policy that keeps a stale partial sighting from overwriting a full scan.
// Terminal error markers are full-depth content rows with an error kind and
// are never offered for download.
//
// FindUndownloaded is the only query the download workers use to pick work.
// Callers pass the refs they must not receive (in-flight and skipped items),
// so claiming stays a single query under the caller's lock.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch rather than migrated.
package catalog
