package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetContent fetches a content item by key. It returns nil when the item is unknown.
func (s *Store) GetContent(ctx context.Context, ref ContentRef) (*Content, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM content c WHERE c.service = ? AND c.id = ?",
		ref.Service, ref.ID,
	)
	content, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return content, nil
}

// ListContentByOwner returns every content item owned by the account.
func (s *Store) ListContentByOwner(ctx context.Context, service, ownerID string) ([]Content, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+contentColumns+" FROM content c WHERE c.service = ? AND c.owner_id = ? ORDER BY c.id",
		service, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var items []Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *content)
	}
	return items, rows.Err()
}

// UpsertContent writes the content item when accept allows it. Descriptive
// fields left empty keep their stored values; depth, scan time, and error
// marker always take the new values. A nil accept always writes. It reports
// whether the write happened.
func (s *Store) UpsertContent(ctx context.Context, content *Content, accept AcceptFunc) (bool, error) {
	if content == nil {
		return false, errors.New("upsert content: nil content")
	}
	if content.Service == "" || content.ID == "" {
		return false, errors.New("upsert content: service and id are required")
	}
	if !content.Depth.Valid() {
		return false, fmt.Errorf("upsert content: invalid depth %q", content.Depth)
	}
	scanTime := content.ScanTime
	if scanTime.IsZero() {
		scanTime = time.Now()
	}
	extra, err := encodeExtra(content.Extra)
	if err != nil {
		return false, fmt.Errorf("upsert content: encode extra: %w", err)
	}

	var written bool
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		written = false
		existing, err := contentRecord(ctx, tx, content.Service, content.ID)
		if err != nil {
			return err
		}
		if accept != nil && !accept(existing) {
			return nil
		}
		now := formatTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO content (service, id, owner_id, title, description, duration_seconds, published_at, thumbnail_url,
			                      error_kind, error_message, depth, scan_time, extra_json, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(service, id) DO UPDATE SET
			   owner_id = CASE WHEN excluded.owner_id <> '' THEN excluded.owner_id ELSE content.owner_id END,
			   title = COALESCE(excluded.title, content.title),
			   description = COALESCE(excluded.description, content.description),
			   duration_seconds = COALESCE(excluded.duration_seconds, content.duration_seconds),
			   published_at = COALESCE(excluded.published_at, content.published_at),
			   thumbnail_url = COALESCE(excluded.thumbnail_url, content.thumbnail_url),
			   error_kind = excluded.error_kind,
			   error_message = excluded.error_message,
			   depth = excluded.depth,
			   scan_time = excluded.scan_time,
			   extra_json = COALESCE(excluded.extra_json, content.extra_json),
			   updated_at = excluded.updated_at`,
			content.Service,
			content.ID,
			content.OwnerID,
			nullableString(content.Title),
			nullableString(content.Description),
			nullableInt(content.DurationSeconds),
			nullableTime(content.PublishedAt),
			nullableString(content.ThumbnailURL),
			nullableString(content.ErrorKind),
			nullableString(content.ErrorMessage),
			string(content.Depth),
			formatTime(scanTime),
			extra,
			now,
			now,
		); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("upsert content: %w", err)
	}
	return written, nil
}

func contentRecord(ctx context.Context, tx *sql.Tx, service, id string) (*ScanRecord, error) {
	var depth, scanRaw string
	err := tx.QueryRowContext(ctx,
		"SELECT depth, scan_time FROM content WHERE service = ? AND id = ?",
		service, id,
	).Scan(&depth, &scanRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := &ScanRecord{Depth: Depth(depth)}
	if ts, err := parseTimeString(scanRaw); err == nil {
		rec.ScanTime = ts
	}
	return rec, nil
}

// FindUndownloaded returns one content item that is fully scanned, is not a
// terminal error marker, belongs to an accepted account, has no download, and
// is not listed in exclude. It returns nil when nothing qualifies. Newer
// publications are returned first.
func (s *Store) FindUndownloaded(ctx context.Context, exclude []ContentRef) (*Content, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + contentColumns + `
		FROM content c
		JOIN accounts a ON a.service = c.service AND a.external_id = c.owner_id
		LEFT JOIN downloads d ON d.service = c.service AND d.content_id = c.id
		WHERE a.status = ?
		  AND c.depth = ?
		  AND c.error_kind IS NULL
		  AND d.content_id IS NULL`
	args := []any{string(AccountAccepted), string(DepthFull)}
	if len(exclude) > 0 {
		// One JSON parameter regardless of size; SQLite caps bound variables.
		refs, err := encodeRefs(exclude)
		if err != nil {
			return nil, fmt.Errorf("find undownloaded: %w", err)
		}
		query += ` AND (c.service, c.id) NOT IN (
			SELECT json_extract(value, '$[0]'), json_extract(value, '$[1]') FROM json_each(?))`
		args = append(args, refs)
	}
	query += " ORDER BY c.published_at IS NULL, c.published_at DESC, c.service, c.id LIMIT 1"

	row := s.db.QueryRowContext(ctx, query, args...)
	content, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find undownloaded: %w", err)
	}
	return content, nil
}
