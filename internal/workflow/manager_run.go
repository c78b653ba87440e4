package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"archivist/internal/logging"
	"archivist/internal/services"
)

// Start launches the scan lanes, the download workers, and the reconcile
// loop. It returns immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	pipelines := m.Pipelines()
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.runErr = nil
	m.done = make(chan struct{})
	m.scanned = m.scanned[:0]
	for _, p := range pipelines {
		m.scanned = append(m.scanned, p.Service())
	}
	done := m.done
	m.mu.Unlock()

	var lanes sync.WaitGroup
	for _, pipeline := range pipelines {
		lanes.Add(1)
		go func() {
			defer lanes.Done()
			_ = pipeline.Run(runCtx)
		}()
	}

	lanes.Add(1)
	go func() {
		defer lanes.Done()
		m.runReconcileLoop(runCtx)
	}()

	var pool errgroup.Group
	for i := 1; i <= m.workers; i++ {
		pool.Go(func() error {
			return m.runWorker(runCtx, i)
		})
	}

	m.logger.Info("workflow started",
		logging.Int("workers", m.workers),
		logging.Any("services", m.scanned),
		logging.String(logging.FieldEventType, "workflow_started"),
	)

	go func() {
		err := pool.Wait()
		lanes.Wait()
		m.mu.Lock()
		m.runErr = err
		m.running = false
		m.mu.Unlock()
		close(done)
	}()
	return nil
}

// Stop cancels every loop and waits for them to return. It reports the
// first worker error, if any.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return m.Err()
	}
	cancel()
	<-done
	return m.Err()
}

// Done is closed once every loop has returned.
func (m *Manager) Done() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}

// Err returns the first worker error of the last run.
func (m *Manager) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runErr
}

func (m *Manager) runReconcileLoop(ctx context.Context) {
	logger := logging.NewComponentLogger(m.logger, "reconcile")
	run := func() {
		if _, err := m.reconciler.Run(ctx); err != nil && ctx.Err() == nil {
			m.setLastError(err)
			logging.WarnWithContext(logger, "reconcile failed", "reconcile_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check catalog database and archive roots"),
			)
		}
	}
	run()
	if m.reconcileInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.reconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

func (m *Manager) runWorker(ctx context.Context, index int) error {
	ctx = services.WithWorker(ctx, index)
	logger := logging.WithContext(ctx, m.logger)
	for {
		if ctx.Err() != nil {
			return nil
		}
		content, err := m.claims.Claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.setLastError(err)
			logger.Error("failed to claim next download",
				logging.Error(err),
				logging.String(logging.FieldEventType, "claim_failed"),
				logging.String(logging.FieldErrorHint, "check catalog database access"),
			)
			sleep(ctx, m.errorDelay)
			continue
		}
		if content == nil {
			m.noteIdle(logger)
			sleep(ctx, m.idleDelay)
			continue
		}

		m.noteBusy()
		err = m.processItem(ctx, index, content)
		m.active.Add(-1)
		if errors.Is(err, ErrNoTrackingArchive) {
			return err
		}
	}
}

func (m *Manager) noteBusy() {
	m.active.Add(1)
	m.idleMu.Lock()
	m.idle = false
	m.idleMu.Unlock()
}

// noteIdle logs the pool-wide idle message once per idle streak, and only
// when no other worker is mid-download.
func (m *Manager) noteIdle(logger *slog.Logger) {
	if m.active.Load() > 0 {
		return
	}
	m.idleMu.Lock()
	defer m.idleMu.Unlock()
	if m.idle {
		return
	}
	m.idle = true
	logger.Info("downloaded everything, sleeping",
		logging.String(logging.FieldEventType, "download_idle"),
	)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = 10 * time.Millisecond
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
