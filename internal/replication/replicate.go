package replication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/fileutil"
	"archivist/internal/logging"
)

// Method records how a replica was satisfied.
type Method string

const (
	MethodExisting Method = "existing"
	MethodLink     Method = "link"
	MethodCopy     Method = "copy"
)

// LinkOrCopy makes dst refer to the same bytes as src. It hard links when
// possible and falls back to a verified copy across filesystems.
func LinkOrCopy(src, dst string) (Method, error) {
	exists, err := fileutil.Exists(dst)
	if err != nil {
		return "", fmt.Errorf("stat target: %w", err)
	}
	if exists {
		return MethodExisting, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create target dir: %w", err)
	}
	linkErr := os.Link(src, dst)
	if linkErr == nil {
		return MethodLink, nil
	}
	if errors.Is(linkErr, os.ErrExist) {
		return MethodExisting, nil
	}
	if !fileutil.IsCrossDevice(linkErr) {
		return "", fmt.Errorf("link: %w", linkErr)
	}
	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		return "", fmt.Errorf("copy: %w", err)
	}
	return MethodCopy, nil
}

// Outcome is the result of one replica.
type Outcome struct {
	Archive string
	Path    string
	Method  Method
	Err     error
}

// Result summarises a fan-out.
type Result struct {
	Outcomes []Outcome
}

// Created counts replicas that did not exist before.
func (r Result) Created() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil && (o.Method == MethodLink || o.Method == MethodCopy) {
			n++
		}
	}
	return n
}

// Err joins every replica failure.
func (r Result) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("archive %s: %w", o.Archive, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Replicator fans downloads out to secondary archives.
type Replicator struct {
	logger *slog.Logger
}

// NewReplicator returns a replicator that logs through logger.
func NewReplicator(logger *slog.Logger) *Replicator {
	return &Replicator{logger: logging.NewComponentLogger(logger, "replication")}
}

// FanOut places download into every target archive other than the one that
// already holds download.Path. Failures are logged and returned in the result;
// the primary file is never touched.
func (r *Replicator) FanOut(ctx context.Context, download *catalog.Download, targets []archives.Archive) Result {
	var result Result
	if download == nil {
		return result
	}
	logger := logging.WithContext(ctx, r.logger)
	primary := filepath.Clean(download.Path)
	for _, archive := range targets {
		if ctx.Err() != nil {
			break
		}
		target := filepath.Clean(archive.Path(download.RelativePath))
		if target == primary {
			continue
		}
		method, err := LinkOrCopy(primary, target)
		outcome := Outcome{Archive: archive.Name, Path: target, Method: method, Err: err}
		result.Outcomes = append(result.Outcomes, outcome)
		if err != nil {
			logging.WarnWithContext(logger, "replica failed", "replica_failed",
				logging.String(logging.FieldArchive, archive.Name),
				logging.String("path", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check archive root permissions and free space"),
				logging.String(logging.FieldImpact, "archive is missing this file until the next reconcile"),
			)
			continue
		}
		if method != MethodExisting {
			logger.Info("replica created",
				logging.String(logging.FieldArchive, archive.Name),
				logging.String("path", target),
				logging.String("method", string(method)),
				logging.String(logging.FieldEventType, "replica_created"),
			)
		}
	}
	return result
}
