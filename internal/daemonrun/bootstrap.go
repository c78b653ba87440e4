package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/extractor"
	"archivist/internal/extractor/youtube"
	"archivist/internal/logging"
)

// BuildExtractors registers an extractor for every enabled service.
func BuildExtractors(cfg *config.Config) (*extractor.Registry, error) {
	var list []extractor.Extractor
	if cfg.ServiceEnabled(config.ServiceYouTube) {
		yt, err := youtube.New(cfg.Services.YouTube)
		if err != nil {
			return nil, fmt.Errorf("youtube extractor: %w", err)
		}
		list = append(list, yt)
	}
	return extractor.NewRegistry(list...)
}

// SeedAccounts makes sure every account an archive tracks exists in the
// catalog. New accounts start accepted with no scan record, so the next scan
// pass picks them up. It returns how many accounts were inserted.
func SeedAccounts(ctx context.Context, store *catalog.Store, registry *archives.Registry, logger *slog.Logger) (int, error) {
	inserted := 0
	for _, service := range registry.Services() {
		for _, pair := range registry.Pairs(service) {
			added, err := store.EnsureAccount(ctx, pair.Service, pair.AccountID, "")
			if err != nil {
				return inserted, fmt.Errorf("seed account %s:%s: %w", pair.Service, pair.AccountID, err)
			}
			if added {
				inserted++
				logger.Info("tracking new account",
					logging.String(logging.FieldService, pair.Service),
					logging.String(logging.FieldAccountID, pair.AccountID),
					logging.String(logging.FieldArchive, pair.Archive.Name),
					logging.String("entity", pair.Entity),
					logging.String(logging.FieldEventType, "account_seeded"),
				)
			}
		}
	}
	return inserted, nil
}
