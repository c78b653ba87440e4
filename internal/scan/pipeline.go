package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/extractor"
	"archivist/internal/freshness"
	"archivist/internal/logging"
	"archivist/internal/services"
)

// Store is the catalog surface the pipeline writes through.
type Store interface {
	GetAccount(ctx context.Context, service, externalID string) (*catalog.Account, error)
	UpsertAccount(ctx context.Context, account *catalog.Account, accept catalog.AcceptFunc) (bool, error)
	ListContentByOwner(ctx context.Context, service, ownerID string) ([]catalog.Content, error)
	UpsertContent(ctx context.Context, content *catalog.Content, accept catalog.AcceptFunc) (bool, error)
}

// Options tunes the Run loop.
type Options struct {
	IdleDelay  time.Duration
	ErrorDelay time.Duration
}

// PassResult counts what a single pass did.
type PassResult struct {
	AccountsScanned int
	AccountsMissing int
	AccountsFailed  int
	ContentListed   int
	ContentDetailed int
	ContentTerminal int
	ContentFailed   int
}

// Work reports whether the pass touched the external service at all.
func (r PassResult) Work() int {
	return r.AccountsScanned + r.AccountsMissing + r.AccountsFailed +
		r.ContentDetailed + r.ContentTerminal + r.ContentFailed
}

// Pipeline scans the accounts of one service.
type Pipeline struct {
	service   string
	extractor extractor.Extractor
	store     Store
	registry  *archives.Registry
	scheduler *freshness.Scheduler
	opts      Options
	logger    *slog.Logger

	idle bool
}

// NewPipeline builds a pipeline for ext's service.
func NewPipeline(ext extractor.Extractor, store Store, registry *archives.Registry, scheduler *freshness.Scheduler, opts Options, logger *slog.Logger) *Pipeline {
	if scheduler == nil {
		scheduler = freshness.NewScheduler(nil)
	}
	return &Pipeline{
		service:   ext.Service(),
		extractor: ext,
		store:     store,
		registry:  registry,
		scheduler: scheduler,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "scan"),
	}
}

// Service returns the service this pipeline scans.
func (p *Pipeline) Service() string {
	return p.service
}

// tracked is one account with the shortest gaps of every archive tracking it.
type tracked struct {
	id         string
	accountGap time.Duration
	contentGap time.Duration
}

func (p *Pipeline) trackedAccounts() []tracked {
	var out []tracked
	index := make(map[string]int)
	for _, pair := range p.registry.Pairs(p.service) {
		accountGap := pair.Archive.AccountGap(p.service)
		contentGap := pair.Archive.ContentGap(p.service)
		if i, ok := index[pair.AccountID]; ok {
			out[i].accountGap = min(out[i].accountGap, accountGap)
			out[i].contentGap = min(out[i].contentGap, contentGap)
			continue
		}
		index[pair.AccountID] = len(out)
		out = append(out, tracked{id: pair.AccountID, accountGap: accountGap, contentGap: contentGap})
	}
	return out
}

// RunPass scans every tracked account once. Extractor failures are logged
// and counted; only store failures and cancellation are returned.
func (p *Pipeline) RunPass(ctx context.Context) (PassResult, error) {
	var result PassResult
	ctx = services.WithService(ctx, p.service)
	for _, acc := range p.trackedAccounts() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		accountCtx := services.WithAccountID(ctx, acc.id)
		if err := p.scanAccount(accountCtx, acc, &result); err != nil {
			return result, err
		}
		if err := p.detailContent(accountCtx, acc, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (p *Pipeline) scanAccount(ctx context.Context, acc tracked, result *PassResult) error {
	existing, err := p.store.GetAccount(ctx, p.service, acc.id)
	if err != nil {
		return err
	}
	if !p.scheduler.Due(existing.Record(), acc.accountGap) {
		return nil
	}
	logger := logging.WithContext(ctx, p.logger)
	now := p.scheduler.Now()
	policy := p.scheduler.Policy(catalog.DepthFull, acc.accountGap)

	listing, err := p.extractor.ListAccount(ctx, acc.id)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if services.IsLocal(err) {
			return fmt.Errorf("list account %s: %w", acc.id, err)
		}
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrNoContent) {
			marker := &catalog.Account{
				Service:    p.service,
				ExternalID: acc.id,
				ErrorKind:  services.ErrorKind(err),
				ScanRecord: catalog.ScanRecord{Depth: catalog.DepthFull, ScanTime: now},
			}
			if _, err := p.store.UpsertAccount(ctx, marker, policy); err != nil {
				return err
			}
			result.AccountsMissing++
			logger.Info("account has nothing to list",
				logging.String("error_kind", marker.ErrorKind),
				logging.Error(err),
				logging.String(logging.FieldEventType, "account_empty"),
			)
			return nil
		}
		result.AccountsFailed++
		logging.WarnWithContext(logger, "account listing failed", "account_scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "retried on the next pass"),
			logging.String(logging.FieldImpact, "new content from this account is not seen yet"),
		)
		return nil
	}

	account := &catalog.Account{
		Service:    p.service,
		ExternalID: acc.id,
		Name:       listing.Account.Name,
		URL:        listing.Account.URL,
		Extra:      listing.Account.Extra,
		ScanRecord: catalog.ScanRecord{Depth: catalog.DepthFull, ScanTime: now},
	}
	if _, err := p.store.UpsertAccount(ctx, account, policy); err != nil {
		return err
	}
	result.AccountsScanned++

	listed := 0
	for _, summary := range listing.Content {
		if summary.ID == "" {
			continue
		}
		kind := summary.Kind
		if !kind.Valid() || kind.IsFull() {
			kind = catalog.DepthListed
		}
		owner := summary.OwnerID
		if owner == "" {
			owner = acc.id
		}
		content := &catalog.Content{
			Service:     p.service,
			ID:          summary.ID,
			OwnerID:     owner,
			Title:       summary.Title,
			PublishedAt: summary.PublishedAt,
			Extra:       summary.Extra,
			ScanRecord:  catalog.ScanRecord{Depth: kind, ScanTime: now},
		}
		written, err := p.store.UpsertContent(ctx, content, p.scheduler.Policy(kind, acc.contentGap))
		if err != nil {
			return err
		}
		if written {
			listed++
		}
	}
	result.ContentListed += listed
	logger.Info("account scanned",
		logging.String("name", account.Name),
		logging.Int("listed", len(listing.Content)),
		logging.Int("written", listed),
		logging.String(logging.FieldEventType, "account_scanned"),
	)
	return nil
}

func (p *Pipeline) detailContent(ctx context.Context, acc tracked, result *PassResult) error {
	account, err := p.store.GetAccount(ctx, p.service, acc.id)
	if err != nil {
		return err
	}
	if account == nil || !account.Depth.IsFull() || account.ErrorKind != "" || account.Status != catalog.AccountAccepted {
		return nil
	}
	items, err := p.store.ListContentByOwner(ctx, p.service, acc.id)
	if err != nil {
		return err
	}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := &items[i]
		if !p.scheduler.Due(item.Record(), acc.contentGap) {
			continue
		}
		if err := p.detailOne(services.WithContentID(ctx, item.ID), acc, item, result); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) detailOne(ctx context.Context, acc tracked, item *catalog.Content, result *PassResult) error {
	logger := logging.WithContext(ctx, p.logger)
	policy := p.scheduler.Policy(catalog.DepthFull, acc.contentGap)

	detail, err := p.extractor.GetContentDetail(ctx, item.ID)
	now := p.scheduler.Now()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if services.IsLocal(err) {
			return fmt.Errorf("content detail %s: %w", item.ID, err)
		}
		if !services.IsContentGone(err) {
			result.ContentFailed++
			logging.WarnWithContext(logger, "content detail failed", "content_detail_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "retried on the next pass"),
			)
			return nil
		}
		marker := &catalog.Content{
			Service:      p.service,
			ID:           item.ID,
			OwnerID:      item.OwnerID,
			ErrorKind:    services.ErrorKind(err),
			ErrorMessage: err.Error(),
			ScanRecord:   catalog.ScanRecord{Depth: catalog.DepthFull, ScanTime: now},
		}
		if _, err := p.store.UpsertContent(ctx, marker, policy); err != nil {
			return err
		}
		result.ContentTerminal++
		logger.Info("content marked unavailable",
			logging.String("error_kind", marker.ErrorKind),
			logging.Error(err),
			logging.String(logging.FieldEventType, "content_terminal"),
		)
		return nil
	}

	owner := detail.OwnerID
	if owner == "" {
		owner = item.OwnerID
	}
	content := &catalog.Content{
		Service:         p.service,
		ID:              item.ID,
		OwnerID:         owner,
		Title:           detail.Title,
		Description:     detail.Description,
		DurationSeconds: detail.DurationSeconds,
		PublishedAt:     detail.PublishedAt,
		ThumbnailURL:    detail.ThumbnailURL,
		Extra:           detail.Extra,
		ScanRecord:      catalog.ScanRecord{Depth: catalog.DepthFull, ScanTime: now},
	}
	if _, err := p.store.UpsertContent(ctx, content, policy); err != nil {
		return fmt.Errorf("write content detail: %w", err)
	}
	result.ContentDetailed++
	logger.Debug("content detailed",
		logging.String("title", content.Title),
		logging.String(logging.FieldEventType, "content_detailed"),
	)
	return nil
}

// Run repeats RunPass until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := logging.WithContext(services.WithService(ctx, p.service), p.logger)
	for {
		result, err := p.RunPass(ctx)
		if ctx.Err() != nil {
			return nil
		}
		delay := p.opts.IdleDelay
		switch {
		case err != nil:
			delay = p.opts.ErrorDelay
			p.idle = false
			logging.ErrorWithContext(logger, "scan pass failed", "scan_pass_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the catalog database and the yt-dlp installation"),
				logging.String(logging.FieldImpact, "scanning paused until retry"),
			)
		case result.Work() == 0:
			if !p.idle {
				p.idle = true
				logger.Info("finished scanning accounts, sleeping",
					logging.String(logging.FieldEventType, "scan_idle"),
				)
			}
		default:
			p.idle = false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
