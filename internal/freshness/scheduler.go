// Package freshness decides when accounts and content need re-scanning and
// whether a new scan result may replace the stored one.
package freshness

import (
	"time"

	"archivist/internal/catalog"
)

// Scheduler evaluates scan records against update gaps.
type Scheduler struct {
	clock Clock
}

// NewScheduler returns a scheduler reading time from clock. A nil clock uses
// the system clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Stale reports whether rec is older than gap. A missing record is stale.
func (s *Scheduler) Stale(rec *catalog.ScanRecord, gap time.Duration) bool {
	if rec == nil {
		return true
	}
	return s.clock.Now().Sub(rec.ScanTime) > gap
}

// Due reports whether an entity must be (re-)scanned: it has never been
// scanned, was only seen partially, or its last scan is older than gap.
func (s *Scheduler) Due(rec *catalog.ScanRecord, gap time.Duration) bool {
	if rec == nil || !rec.Depth.IsFull() {
		return true
	}
	return s.Stale(rec, gap)
}

// AcceptWrite reports whether a scan at newDepth may replace existing. The
// write is accepted when nothing is stored, when the stored depth does not
// outrank the new one, or when the stored record is stale. A fresh full
// record therefore survives any partial sighting.
func (s *Scheduler) AcceptWrite(existing *catalog.ScanRecord, newDepth catalog.Depth, gap time.Duration) bool {
	if existing == nil {
		return true
	}
	if existing.Depth.Rank() <= newDepth.Rank() {
		return true
	}
	return s.Stale(existing, gap)
}

// Policy binds AcceptWrite to a depth and gap for use with the catalog upserts.
func (s *Scheduler) Policy(newDepth catalog.Depth, gap time.Duration) catalog.AcceptFunc {
	return func(existing *catalog.ScanRecord) bool {
		return s.AcceptWrite(existing, newDepth, gap)
	}
}
