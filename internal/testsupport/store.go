package testsupport

import (
	"context"
	"testing"

	"archivist/internal/catalog"
	"archivist/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedFullContent inserts an accepted account and a fully scanned content
// item owned by it.
func SeedFullContent(t testing.TB, store *catalog.Store, service, accountID, contentID string) *catalog.Content {
	t.Helper()

	ctx := context.Background()
	if _, err := store.EnsureAccount(ctx, service, accountID, ""); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	content := &catalog.Content{
		Service:    service,
		ID:         contentID,
		OwnerID:    accountID,
		Title:      "Title " + contentID,
		ScanRecord: catalog.ScanRecord{Depth: catalog.DepthFull},
	}
	if _, err := store.UpsertContent(ctx, content, nil); err != nil {
		t.Fatalf("UpsertContent: %v", err)
	}
	return content
}
