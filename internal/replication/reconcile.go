package replication

import (
	"context"
	"fmt"
	"log/slog"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/fileutil"
	"archivist/internal/logging"
)

// Store is the catalog surface the reconciler needs.
type Store interface {
	ListDownloads(ctx context.Context) ([]catalog.Download, error)
	RemoveDownload(ctx context.Context, ref catalog.ContentRef) (bool, error)
	GetContent(ctx context.Context, ref catalog.ContentRef) (*catalog.Content, error)
}

// Report summarises one reconcile run.
type Report struct {
	Checked int
	Pruned  int
	Healed  int
	Failed  int
}

// Reconciler prunes vanished downloads and heals missing replicas.
type Reconciler struct {
	store      Store
	registry   *archives.Registry
	replicator *Replicator
	logger     *slog.Logger
}

// NewReconciler builds a reconciler.
func NewReconciler(store Store, registry *archives.Registry, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:      store,
		registry:   registry,
		replicator: NewReplicator(logger),
		logger:     logging.NewComponentLogger(logger, "reconcile"),
	}
}

// Run checks every recorded download once.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var report Report
	downloads, err := r.store.ListDownloads(ctx)
	if err != nil {
		return report, fmt.Errorf("reconcile: %w", err)
	}
	for i := range downloads {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		download := &downloads[i]
		report.Checked++

		exists, err := fileutil.Exists(download.Path)
		if err != nil {
			report.Failed++
			logging.WarnWithContext(r.logger, "download check failed", "reconcile_check_failed",
				logging.String(logging.FieldContentID, download.ContentID),
				logging.String("path", download.Path),
				logging.Error(err),
			)
			continue
		}
		if !exists {
			if _, err := r.store.RemoveDownload(ctx, download.Ref()); err != nil {
				return report, fmt.Errorf("reconcile: %w", err)
			}
			report.Pruned++
			r.logger.Info("pruned download with missing file",
				logging.String(logging.FieldService, download.Service),
				logging.String(logging.FieldContentID, download.ContentID),
				logging.String("path", download.Path),
				logging.String(logging.FieldEventType, "download_pruned"),
			)
			continue
		}

		content, err := r.store.GetContent(ctx, download.Ref())
		if err != nil {
			return report, fmt.Errorf("reconcile: %w", err)
		}
		if content == nil || content.OwnerID == "" {
			continue
		}
		targets := r.registry.ListTracking(download.Service, content.OwnerID)
		result := r.replicator.FanOut(ctx, download, targets)
		report.Healed += result.Created()
		if result.Err() != nil {
			report.Failed++
		}
	}
	r.logger.Info("reconcile complete",
		logging.Int("checked", report.Checked),
		logging.Int("pruned", report.Pruned),
		logging.Int("healed", report.Healed),
		logging.Int("failed", report.Failed),
		logging.String(logging.FieldEventType, "reconcile_complete"),
	)
	return report, nil
}
