package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/logging"
	"archivist/internal/workflow"
)

// ErrAlreadyRunning is returned when another process holds the daemon lock.
var ErrAlreadyRunning = errors.New("another archivist daemon instance is already running")

// Daemon runs the workflow manager under the single-instance lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the workflow manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("archivist daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("workers", d.cfg.Workflow.DownloadWorkers),
		logging.Int("archives", len(d.cfg.Archives)),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

// Done is closed once every worker and scan lane has returned.
func (d *Daemon) Done() <-chan struct{} {
	return d.workflow.Done()
}

// Stop cancels background processing, waits for it, and releases the lock.
// The returned error is the first failure a download worker reported.
func (d *Daemon) Stop() error {
	if !d.running.Load() {
		return nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	err := d.workflow.Stop()
	if unlockErr := d.lock.Unlock(); unlockErr != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(unlockErr),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("archivist daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
	return err
}

// Close stops the daemon and closes the catalog.
func (d *Daemon) Close() error {
	stopErr := d.Stop()
	closeErr := d.store.Close()
	return errors.Join(stopErr, closeErr)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
}

// Probe reports whether some process currently holds the daemon lock for cfg.
// It never leaves the lock held.
func Probe(cfg *config.Config) (bool, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	return false, lock.Unlock()
}
