// Package extractor defines the contract between the orchestration engine and
// the per-service integrations that talk to external platforms.
//
// Extractors translate platform data into typed summaries and perform the
// actual file download. They classify failures with the services error
// markers: ErrNotFound and ErrNoContent for accounts that cannot be listed,
// ErrUnavailable for content that will never be retrievable, and transient
// markers for everything worth retrying later.
package extractor

import (
	"context"
	"time"

	"archivist/internal/catalog"
)

// AccountInfo describes the account itself.
type AccountInfo struct {
	ID    string
	Name  string
	URL   string
	Extra map[string]any
}

// ContentSummary is a partial sighting of a content item.
type ContentSummary struct {
	ID          string
	OwnerID     string
	Title       string
	Kind        catalog.Depth
	PublishedAt *time.Time
	Extra       map[string]any
}

// AccountListing is the result of listing an account.
type AccountListing struct {
	Account AccountInfo
	Content []ContentSummary
}

// ContentDetail is the full metadata of a content item.
type ContentDetail struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	DurationSeconds int64
	PublishedAt     *time.Time
	ThumbnailURL    string
	Extra           map[string]any
}

// Result describes a completed download inside the staging directory.
// RelativePath is relative to the staging directory and is reused unchanged
// below every archive root.
type Result struct {
	LocalPath    string
	RelativePath string
	Format       string
	SizeBytes    int64
}

// Extractor is implemented once per external service.
type Extractor interface {
	Service() string
	ListAccount(ctx context.Context, accountID string) (*AccountListing, error)
	GetContentDetail(ctx context.Context, contentID string) (*ContentDetail, error)
	Download(ctx context.Context, owner *catalog.Account, content *catalog.Content, stagingDir string) (*Result, error)
}
