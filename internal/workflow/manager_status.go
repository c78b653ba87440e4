package workflow

import (
	"context"

	"archivist/internal/catalog"
	"archivist/internal/logging"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running      bool
	Workers      int
	Active       int
	Idle         bool
	Services     []string
	LastError    string
	LastDownload *catalog.Download
	Stats        catalog.Stats
	InFlight     []catalog.ContentRef
	Skipped      []catalog.ContentRef
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:  m.running,
		Workers:  m.workers,
		Services: append([]string(nil), m.scanned...),
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastDownload != nil {
		last := *m.lastDownload
		summary.LastDownload = &last
	}
	m.mu.RUnlock()

	summary.Active = int(m.active.Load())
	m.idleMu.Lock()
	summary.Idle = m.idle
	m.idleMu.Unlock()

	snapshot := m.claims.Snapshot()
	summary.InFlight = snapshot.InFlight
	summary.Skipped = snapshot.Skipped

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read catalog stats", logging.Error(err))
	}
	summary.Stats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastDownload(download *catalog.Download) {
	m.mu.Lock()
	if download != nil {
		stored := *download
		m.lastDownload = &stored
	} else {
		m.lastDownload = nil
	}
	m.mu.Unlock()
}
