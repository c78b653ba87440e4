package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateDownload is returned when a content item already has a download.
var ErrDuplicateDownload = errors.New("download already recorded")

// AddDownload records the physical file for a content item.
func (s *Store) AddDownload(ctx context.Context, download *Download) error {
	if download == nil {
		return errors.New("add download: nil download")
	}
	if download.Service == "" || download.ContentID == "" || download.Path == "" {
		return errors.New("add download: service, content id, and path are required")
	}
	created := download.CreatedAt
	if created.IsZero() {
		created = time.Now()
		download.CreatedAt = created
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO downloads (service, content_id, path, relative_path, format, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		download.Service,
		download.ContentID,
		download.Path,
		download.RelativePath,
		nullableString(download.Format),
		download.SizeBytes,
		formatTime(created),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add download %s: %w", download.Ref(), ErrDuplicateDownload)
		}
		return fmt.Errorf("add download: %w", err)
	}
	return nil
}

// GetDownload returns the download for ref, or nil when none is recorded.
func (s *Store) GetDownload(ctx context.Context, ref ContentRef) (*Download, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+downloadColumns+" FROM downloads WHERE service = ? AND content_id = ?",
		ref.Service, ref.ID,
	)
	download, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get download: %w", err)
	}
	return download, nil
}

// ListDownloads returns every recorded download, oldest first.
func (s *Store) ListDownloads(ctx context.Context) ([]Download, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+downloadColumns+" FROM downloads ORDER BY created_at, service, content_id",
	)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		download, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		downloads = append(downloads, *download)
	}
	return downloads, rows.Err()
}

// RemoveDownload deletes the download record for ref. The file is not touched.
func (s *Store) RemoveDownload(ctx context.Context, ref ContentRef) (bool, error) {
	res, err := s.execWithRetry(ctx,
		"DELETE FROM downloads WHERE service = ? AND content_id = ?",
		ref.Service, ref.ID,
	)
	if err != nil {
		return false, fmt.Errorf("remove download: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove download rows affected: %w", err)
	}
	return affected > 0, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed: PRIMARY KEY")
}
