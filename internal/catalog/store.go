package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"archivist/internal/config"
)

// Store is the SQLite-backed catalog.
type Store struct {
	db   *sql.DB
	path string
}

// connPragmas are applied by the driver to every new connection.
var connPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// Open ensures the configured state directory exists and opens the catalog
// inside it.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens or creates the catalog at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	query := url.Values{}
	for _, p := range connPragmas {
		query.Add("_pragma", p)
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", dbPath, err)
	}
	// One connection serialises writers within the process, which the
	// read-then-write upserts rely on.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open catalog %s: %w", dbPath, err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path is the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const (
	busyAttempts = 5
	busyFirstGap = 10 * time.Millisecond
	busyMaxGap   = 200 * time.Millisecond
)

// busy reports whether err is SQLITE_BUSY or one of its extended codes.
func busy(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()&0xff == 5
	}
	return err != nil && strings.Contains(err.Error(), "database is locked")
}

// whileBusy runs op until it succeeds, fails with a non-busy error, or has
// been tried busyAttempts times, doubling the pause between tries.
func whileBusy(ctx context.Context, op func() error) error {
	gap := busyFirstGap
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !busy(err) || attempt == busyAttempts {
			return err
		}
		timer := time.NewTimer(gap)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		gap = min(gap*2, busyMaxGap)
	}
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := whileBusy(ctx, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// withTx runs fn inside a transaction. A busy database retries the whole
// transaction, so fn must tolerate being called more than once.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx = ensureContext(ctx)
	return whileBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
