package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"archivist/internal/logging"
	"archivist/internal/textutil"
)

// WorkDir returns the per-attempt directory for a worker. The request ID keeps
// retries of the same content by different workers apart.
func WorkDir(root string, worker int, contentID, requestID string) string {
	name := fmt.Sprintf("worker-%d-%s", worker, textutil.SanitizeToken(contentID))
	if requestID = strings.TrimSpace(requestID); requestID != "" {
		name += "-" + textutil.SanitizeToken(requestID)
	}
	return filepath.Join(root, name)
}

// Reset empties the staging root, creating it when missing. Entries that cannot
// be removed are reported through the returned result.
func Reset(ctx context.Context, root string, logger *slog.Logger) (CleanResult, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return CleanResult{}, fmt.Errorf("staging root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return CleanResult{}, fmt.Errorf("create staging root: %w", err)
	}
	return clean(ctx, root, logger, "cleared staging entry", func(os.DirEntry, os.FileInfo) bool { return true }), nil
}

// CleanResult contains the outcome of a staging cleanup.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staging entries older than maxAge.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	root = strings.TrimSpace(root)
	if root == "" {
		return CleanResult{}
	}
	cutoff := time.Now().Add(-maxAge)
	return clean(ctx, root, logger, "removed stale staging entry", func(_ os.DirEntry, info os.FileInfo) bool {
		return info.ModTime().Before(cutoff)
	})
}

func clean(ctx context.Context, root string, logger *slog.Logger, msg string, match func(os.DirEntry, os.FileInfo) bool) CleanResult {
	var result CleanResult
	if logger == nil {
		logger = logging.NewNop()
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: ctx.Err()})
			return result
		}
		path := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !match(entry, info) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logger.Warn("failed to remove staging entry",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Info(msg,
			logging.String("path", path),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// DirInfo describes one entry in the staging root.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns the directories under root with their total size.
// A missing root yields no entries.
func ListDirectories(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    dirSize(path),
		})
	}
	return dirs, nil
}

// best effort; unreadable entries count as zero
func dirSize(path string) int64 {
	var size int64
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return size
}
