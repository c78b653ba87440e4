package catalog

import (
	"context"
	"fmt"
)

// Stats summarises the catalog for status output.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM accounts",
		string(AccountAccepted),
	).Scan(&stats.Accounts, &stats.AcceptedAccounts); err != nil {
		return Stats{}, fmt.Errorf("count accounts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1),
		        COALESCE(SUM(CASE WHEN depth = ? AND error_kind IS NULL THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN depth <> ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN depth = ? AND error_kind IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM content`,
		string(DepthFull), string(DepthFull), string(DepthFull),
	).Scan(&stats.Content, &stats.FullContent, &stats.PartialContent, &stats.TerminalContent); err != nil {
		return Stats{}, fmt.Errorf("count content: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(size_bytes), 0) FROM downloads",
	).Scan(&stats.Downloads, &stats.DownloadedBytes); err != nil {
		return Stats{}, fmt.Errorf("count downloads: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1)
		 FROM content c
		 JOIN accounts a ON a.service = c.service AND a.external_id = c.owner_id
		 LEFT JOIN downloads d ON d.service = c.service AND d.content_id = c.id
		 WHERE a.status = ? AND c.depth = ? AND c.error_kind IS NULL AND d.content_id IS NULL`,
		string(AccountAccepted), string(DepthFull),
	).Scan(&stats.Pending); err != nil {
		return Stats{}, fmt.Errorf("count pending: %w", err)
	}
	return stats, nil
}
