package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/claim"
	"archivist/internal/config"
	"archivist/internal/extractor"
	"archivist/internal/freshness"
	"archivist/internal/logging"
	"archivist/internal/replication"
	"archivist/internal/scan"
)

// ErrNoTrackingArchive reports content whose owner no archive tracks.
var ErrNoTrackingArchive = errors.New("owner is not tracked by any archive")

// Store is the catalog surface the manager and its loops use.
type Store interface {
	claim.Finder
	scan.Store
	replication.Store
	AddDownload(ctx context.Context, download *catalog.Download) error
	Stats(ctx context.Context) (catalog.Stats, error)
}

// Manager coordinates scanning, downloading, and reconciliation.
type Manager struct {
	cfg        *config.Config
	store      Store
	registry   *archives.Registry
	extractors *extractor.Registry
	scheduler  *freshness.Scheduler
	claims     *claim.Set
	replicator *replication.Replicator
	reconciler *replication.Reconciler
	logger     *slog.Logger

	workers           int
	attempts          int
	idleDelay         time.Duration
	scanIdleDelay     time.Duration
	errorDelay        time.Duration
	retryDelay        time.Duration
	reconcileInterval time.Duration

	mu           sync.RWMutex
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
	runErr       error
	lastErr      error
	lastDownload *catalog.Download

	active  atomic.Int32
	idleMu  sync.Mutex
	idle    bool
	scanned []string
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock makes the freshness scheduler read time from clock.
func WithClock(clock freshness.Clock) ManagerOption {
	return func(m *Manager) {
		m.scheduler = freshness.NewScheduler(clock)
	}
}

// WithReconcileInterval overrides the configured reconcile interval. Zero
// disables the periodic run but keeps the startup pass.
func WithReconcileInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.reconcileInterval = d
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store Store, registry *archives.Registry, extractors *extractor.Registry, logger *slog.Logger, opts ...ManagerOption) *Manager {
	logger = logging.NewComponentLogger(logger, "workflow")
	m := &Manager{
		cfg:               cfg,
		store:             store,
		registry:          registry,
		extractors:        extractors,
		scheduler:         freshness.NewScheduler(nil),
		claims:            claim.NewSet(store),
		replicator:        replication.NewReplicator(logger),
		reconciler:        replication.NewReconciler(store, registry, logger),
		logger:            logger,
		workers:           cfg.Workflow.DownloadWorkers,
		attempts:          cfg.Workflow.DownloadAttempts,
		idleDelay:         seconds(cfg.Workflow.DownloadIdleDelay),
		scanIdleDelay:     seconds(cfg.Workflow.ScanIdleDelay),
		errorDelay:        seconds(cfg.Workflow.ErrorRetryInterval),
		retryDelay:        seconds(cfg.Workflow.DownloadRetryDelay),
		reconcileInterval: seconds(cfg.Workflow.ReconcileInterval),
	}
	if m.workers <= 0 {
		m.workers = 1
	}
	if m.attempts <= 0 {
		m.attempts = 1
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Pipelines builds one scan pipeline per service that has both tracked
// accounts and a registered extractor.
func (m *Manager) Pipelines() []*scan.Pipeline {
	var pipelines []*scan.Pipeline
	for _, service := range m.registry.Services() {
		ext, ok := m.extractors.Get(service)
		if !ok {
			logging.WarnWithContext(m.logger, "no extractor for tracked service", "extractor_missing",
				logging.String(logging.FieldService, service),
				logging.String(logging.FieldErrorHint, "enable the service under [services]"),
				logging.String(logging.FieldImpact, "accounts of this service are not scanned"),
			)
			continue
		}
		pipelines = append(pipelines, scan.NewPipeline(ext, m.store, m.registry, m.scheduler, scan.Options{
			IdleDelay:  m.scanIdleDelay,
			ErrorDelay: m.errorDelay,
		}, m.logger))
	}
	return pipelines
}

// ScanOnce runs a single pass for every scannable service.
func (m *Manager) ScanOnce(ctx context.Context) (map[string]scan.PassResult, error) {
	results := make(map[string]scan.PassResult)
	for _, pipeline := range m.Pipelines() {
		result, err := pipeline.RunPass(ctx)
		results[pipeline.Service()] = result
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// Reconcile runs one reconcile pass.
func (m *Manager) Reconcile(ctx context.Context) (replication.Report, error) {
	return m.reconciler.Run(ctx)
}
