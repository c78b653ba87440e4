package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"archivist/internal/catalog"
	"archivist/internal/extractor"
	"archivist/internal/fileutil"
	"archivist/internal/logging"
	"archivist/internal/services"
	"archivist/internal/staging"
)

// processItem downloads one claimed item. Every path out of here either
// releases the claim (success, or shutdown mid-download) or skips it.
func (m *Manager) processItem(ctx context.Context, worker int, content *catalog.Content) error {
	ref := content.Ref()
	requestID := uuid.NewString()
	ctx = services.WithService(ctx, content.Service)
	ctx = services.WithAccountID(ctx, content.OwnerID)
	ctx = services.WithContentID(ctx, content.ID)
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, m.logger)

	skip := func(msg, eventType string, err error, hint string) {
		m.claims.Skip(ref)
		if err != nil {
			m.setLastError(err)
		}
		logging.WarnWithContext(logger, msg, eventType,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "item skipped until restart"),
		)
	}

	ext, ok := m.extractors.Get(content.Service)
	if !ok {
		skip("no extractor for content service", "download_skipped", fmt.Errorf("service %q not registered", content.Service), "enable the service under [services]")
		return nil
	}
	owner, err := m.store.GetAccount(ctx, content.Service, content.OwnerID)
	if err != nil || owner == nil {
		if err == nil {
			err = fmt.Errorf("owner %s:%s not in catalog", content.Service, content.OwnerID)
		}
		skip("failed to resolve content owner", "download_skipped", err, "check catalog database access")
		return nil
	}

	targets := m.registry.ListTracking(content.Service, owner.ExternalID)
	if len(targets) == 0 {
		m.claims.Skip(ref)
		err := fmt.Errorf("%w: %s (owner %s)", ErrNoTrackingArchive, ref, owner.ExternalID)
		m.setLastError(err)
		logging.ErrorWithContext(logger, "downloadable content has no tracking archive", "invariant_violation",
			logging.Alert("no_tracking_archive"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the account was removed from every archive while its content was pending"),
			logging.String(logging.FieldImpact, "this worker stops; the remaining workers continue"),
		)
		return err
	}
	primary := targets[0]

	stagingDir := staging.WorkDir(m.cfg.Paths.StagingDir, worker, content.ID, requestID)
	defer func() {
		_ = os.RemoveAll(stagingDir)
	}()

	start := time.Now()
	result, err := m.downloadWithRetry(ctx, logger, ext, owner, content, stagingDir)
	if err != nil {
		if ctx.Err() != nil {
			m.claims.Release(ref)
			return nil
		}
		if services.IsLocal(err) {
			// The item is fine; this host is not. Hand it back and pause.
			m.claims.Release(ref)
			m.setLastError(err)
			logging.ErrorWithContext(logger, "download cannot run on this host", "download_blocked",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check services.youtube.ytdlp_binary and run archivist status"),
				logging.String(logging.FieldImpact, "downloads paused until retry"),
			)
			sleep(ctx, m.errorDelay)
			return nil
		}
		skip("download failed", "download_failed", err, "inspect yt-dlp output in the log")
		return nil
	}

	rel := filepath.Clean(result.RelativePath)
	if rel == "." || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		skip("download reported an invalid relative path", "download_failed", fmt.Errorf("relative path %q", result.RelativePath), "extractor bug")
		return nil
	}
	target := primary.Path(rel)
	if err := fileutil.MoveFile(result.LocalPath, target); err != nil {
		skip("failed to move download into primary archive", "download_move_failed", err, "check archive root permissions and free space")
		return nil
	}

	download := &catalog.Download{
		Service:      content.Service,
		ContentID:    content.ID,
		Path:         target,
		RelativePath: rel,
		Format:       result.Format,
		SizeBytes:    result.SizeBytes,
	}
	if err := m.store.AddDownload(ctx, download); err != nil {
		skip("failed to record download", "download_record_failed", err, "check catalog database access")
		return nil
	}
	m.claims.Release(ref)
	m.setLastDownload(download)

	logger.Info("download complete",
		logging.String(logging.FieldArchive, primary.Name),
		logging.String("path", target),
		logging.Int64("size_bytes", download.SizeBytes),
		logging.Duration("elapsed", time.Since(start)),
		logging.String(logging.FieldEventType, "download_complete"),
	)

	m.replicator.FanOut(ctx, download, targets)
	return nil
}

func (m *Manager) downloadWithRetry(ctx context.Context, logger *slog.Logger, ext extractor.Extractor, owner *catalog.Account, content *catalog.Content, stagingDir string) (*extractor.Result, error) {
	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		if err := os.RemoveAll(stagingDir); err != nil {
			return nil, fmt.Errorf("reset staging dir: %w", err)
		}
		if err := os.MkdirAll(stagingDir, 0o755); err != nil {
			return nil, fmt.Errorf("create staging dir: %w", err)
		}
		result, err := ext.Download(ctx, owner, content, stagingDir)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil || services.IsPermanent(err) || attempt == m.attempts {
			break
		}
		logger.Warn("download attempt failed; retrying",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", m.attempts),
			logging.Error(err),
			logging.String(logging.FieldEventType, "download_retry"),
			logging.String(logging.FieldErrorHint, "transient failures are retried"),
		)
		select {
		case <-ctx.Done():
			return nil, errors.Join(lastErr, ctx.Err())
		case <-time.After(m.retryDelay):
		}
	}
	return nil, lastErr
}
