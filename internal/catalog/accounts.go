package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// GetAccount fetches an account by key. It returns nil when the account is unknown.
func (s *Store) GetAccount(ctx context.Context, service, externalID string) (*Account, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE service = ? AND external_id = ?",
		service, externalID,
	)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// ListAccounts returns accounts ordered by key. An empty service lists every service.
func (s *Store) ListAccounts(ctx context.Context, service string) ([]Account, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + accountColumns + " FROM accounts"
	var args []any
	if service != "" {
		query += " WHERE service = ?"
		args = append(args, service)
	}
	query += " ORDER BY service, external_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// EnsureAccount inserts a tracked account as accepted when it does not exist.
// An existing account keeps its status and scan record. It reports whether a
// row was inserted.
func (s *Store) EnsureAccount(ctx context.Context, service, externalID, name string) (bool, error) {
	if strings.TrimSpace(service) == "" || strings.TrimSpace(externalID) == "" {
		return false, errors.New("ensure account: service and external id are required")
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO accounts (service, external_id, status, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(service, external_id) DO NOTHING`,
		service, externalID, string(AccountAccepted), nullableString(name), now, now,
	)
	if err != nil {
		return false, fmt.Errorf("ensure account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ensure account rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetAccountStatus changes an account's download status.
func (s *Store) SetAccountStatus(ctx context.Context, service, externalID string, status AccountStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set account status: unsupported status %q", status)
	}
	res, err := s.execWithRetry(ctx,
		"UPDATE accounts SET status = ?, updated_at = ? WHERE service = ? AND external_id = ?",
		string(status), formatTime(time.Now()), service, externalID,
	)
	if err != nil {
		return fmt.Errorf("set account status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set account status rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set account status: account %s:%s not found", service, externalID)
	}
	return nil
}

// UpsertAccount writes the account when accept allows it. The existing scan
// record is read and the write performed in one transaction, so concurrent
// writers cannot interleave between the check and the write. A nil accept
// always writes. It reports whether the write happened.
func (s *Store) UpsertAccount(ctx context.Context, account *Account, accept AcceptFunc) (bool, error) {
	if account == nil {
		return false, errors.New("upsert account: nil account")
	}
	if account.Service == "" || account.ExternalID == "" {
		return false, errors.New("upsert account: service and external id are required")
	}
	if !account.Depth.Valid() {
		return false, fmt.Errorf("upsert account: invalid depth %q", account.Depth)
	}
	scanTime := account.ScanTime
	if scanTime.IsZero() {
		scanTime = time.Now()
	}
	status := account.Status
	if !status.Valid() {
		status = AccountAccepted
	}
	extra, err := encodeExtra(account.Extra)
	if err != nil {
		return false, fmt.Errorf("upsert account: encode extra: %w", err)
	}

	var written bool
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		written = false
		existing, err := accountRecord(ctx, tx, account.Service, account.ExternalID)
		if err != nil {
			return err
		}
		if accept != nil && !accept(existing) {
			return nil
		}
		now := formatTime(time.Now())
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (service, external_id, status, name, url, error_kind, depth, scan_time, extra_json, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(service, external_id) DO UPDATE SET
			   name = COALESCE(excluded.name, accounts.name),
			   url = COALESCE(excluded.url, accounts.url),
			   error_kind = excluded.error_kind,
			   depth = excluded.depth,
			   scan_time = excluded.scan_time,
			   extra_json = COALESCE(excluded.extra_json, accounts.extra_json),
			   updated_at = excluded.updated_at`,
			account.Service,
			account.ExternalID,
			string(status),
			nullableString(account.Name),
			nullableString(account.URL),
			nullableString(account.ErrorKind),
			string(account.Depth),
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
		return false, fmt.Errorf("upsert account: %w", err)
	}
	return written, nil
}

func accountRecord(ctx context.Context, tx *sql.Tx, service, externalID string) (*ScanRecord, error) {
	var depth, scanRaw sql.NullString
	err := tx.QueryRowContext(ctx,
		"SELECT depth, scan_time FROM accounts WHERE service = ? AND external_id = ?",
		service, externalID,
	).Scan(&depth, &scanRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !depth.Valid || depth.String == "" {
		return nil, nil
	}
	rec := &ScanRecord{Depth: Depth(depth.String)}
	if ts, err := parseTimeString(scanRaw.String); err == nil {
		rec.ScanTime = ts
	}
	return rec, nil
}
