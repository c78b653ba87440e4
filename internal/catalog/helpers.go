package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const accountColumns = "service, external_id, status, name, url, error_kind, depth, scan_time, extra_json, created_at, updated_at"

func scanAccount(scanner rowScanner) (*Account, error) {
	var (
		account    Account
		status     string
		name       sql.NullString
		url        sql.NullString
		errorKind  sql.NullString
		depth      sql.NullString
		scanRaw    sql.NullString
		extraRaw   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&account.Service,
		&account.ExternalID,
		&status,
		&name,
		&url,
		&errorKind,
		&depth,
		&scanRaw,
		&extraRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	account.Status = AccountStatus(status)
	account.Name = name.String
	account.URL = url.String
	account.ErrorKind = errorKind.String
	account.Depth = Depth(depth.String)
	if ts, err := parseTimeString(scanRaw.String); err == nil {
		account.ScanTime = ts
	}
	account.Extra = decodeExtra(extraRaw.String)
	if ts, err := parseTimeString(createdRaw.String); err == nil {
		account.CreatedAt = ts
	}
	if ts, err := parseTimeString(updatedRaw.String); err == nil {
		account.UpdatedAt = ts
	}
	return &account, nil
}

const contentColumns = "c.service, c.id, c.owner_id, c.title, c.description, c.duration_seconds, c.published_at, c.thumbnail_url, c.error_kind, c.error_message, c.depth, c.scan_time, c.extra_json, c.created_at, c.updated_at"

func scanContent(scanner rowScanner) (*Content, error) {
	var (
		content      Content
		title        sql.NullString
		description  sql.NullString
		duration     sql.NullInt64
		publishedRaw sql.NullString
		thumbnail    sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		depth        string
		scanRaw      string
		extraRaw     sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&content.Service,
		&content.ID,
		&content.OwnerID,
		&title,
		&description,
		&duration,
		&publishedRaw,
		&thumbnail,
		&errorKind,
		&errorMessage,
		&depth,
		&scanRaw,
		&extraRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	content.Title = title.String
	content.Description = description.String
	content.DurationSeconds = duration.Int64
	if publishedRaw.Valid {
		if ts, err := parseTimeString(publishedRaw.String); err == nil {
			content.PublishedAt = &ts
		}
	}
	content.ThumbnailURL = thumbnail.String
	content.ErrorKind = errorKind.String
	content.ErrorMessage = errorMessage.String
	content.Depth = Depth(depth)
	if ts, err := parseTimeString(scanRaw); err == nil {
		content.ScanTime = ts
	}
	content.Extra = decodeExtra(extraRaw.String)
	if ts, err := parseTimeString(createdRaw.String); err == nil {
		content.CreatedAt = ts
	}
	if ts, err := parseTimeString(updatedRaw.String); err == nil {
		content.UpdatedAt = ts
	}
	return &content, nil
}

const downloadColumns = "service, content_id, path, relative_path, format, size_bytes, created_at"

func scanDownload(scanner rowScanner) (*Download, error) {
	var (
		download   Download
		format     sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(
		&download.Service,
		&download.ContentID,
		&download.Path,
		&download.RelativePath,
		&format,
		&download.SizeBytes,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	download.Format = format.String
	if ts, err := parseTimeString(createdRaw); err == nil {
		download.CreatedAt = ts
	}
	return &download, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func encodeExtra(extra map[string]any) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func decodeExtra(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var extra map[string]any
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		return nil
	}
	return extra
}

// encodeRefs renders refs as a JSON array of [service, id] pairs.
func encodeRefs(refs []ContentRef) (string, error) {
	pairs := make([][2]string, len(refs))
	for i, ref := range refs {
		pairs[i] = [2]string{ref.Service, ref.ID}
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
