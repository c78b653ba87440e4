// Package services defines shared utilities consumed by the scan pipeline,
// the download workers, and the extractor integrations.
//
// Key responsibilities:
//   - Context helpers that stamp service keys, account and content IDs, worker
//     indexes, and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be split
//     into permanent outcomes (recorded as terminal markers) and transient
//     ones (retried on the next pass).
//
// Use these helpers when wiring new extractor or workflow code so operational
// behaviour stays uniform across services.
package services
