// Package scan keeps the catalog current for one service.
//
// A pass walks the tracked accounts in configuration order. Accounts that are
// due are listed through the service extractor; the account is written at
// full depth and every listed item at its partial depth. Accounts that are
// full and accepted then have their due content items fetched in detail. A
// permanent detail failure leaves a terminal marker so the item is neither
// downloaded nor re-fetched until its gap expires; a transient failure leaves
// the record untouched for the next pass.
//
// Every write goes through the freshness policy, so a stale or partial
// sighting never replaces a fresher full scan.
package scan
