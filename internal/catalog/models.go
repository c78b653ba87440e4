package catalog

import (
	"fmt"
	"time"
)

// Depth records how completely an entity has been scanned.
type Depth string

const (
	// DepthFull means a complete detail fetch (or a terminal error marker).
	DepthFull Depth = "full"
	// DepthListed means the entity was seen in its owner's listing.
	DepthListed Depth = "listed"
	// DepthPlaylist means the entity was seen inside a playlist.
	DepthPlaylist Depth = "playlist"
	// DepthRepost means the entity was seen as a repost by another account.
	DepthRepost Depth = "repost"
	// DepthComment means the entity was only seen as a comment author.
	DepthComment Depth = "comment"
)

// Rank orders depths: every partial kind ranks below full and equal to the
// other partial kinds. Unknown or empty depths rank lowest.
func (d Depth) Rank() int {
	switch d {
	case DepthFull:
		return 2
	case DepthListed, DepthPlaylist, DepthRepost, DepthComment:
		return 1
	default:
		return 0
	}
}

// IsFull reports whether d is the full depth.
func (d Depth) IsFull() bool { return d == DepthFull }

// Valid reports whether d is one of the known depths.
func (d Depth) Valid() bool { return d.Rank() > 0 }

// ScanRecord is the freshness information attached to accounts and content.
type ScanRecord struct {
	Depth    Depth
	ScanTime time.Time
}

// AcceptFunc decides whether a write may replace the existing record. It is
// evaluated inside the write transaction; existing is nil when no record exists.
type AcceptFunc func(existing *ScanRecord) bool

// AccountStatus controls whether an account's content is downloaded.
type AccountStatus string

const (
	AccountQueued   AccountStatus = "queued"
	AccountAccepted AccountStatus = "accepted"
	AccountRejected AccountStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountQueued, AccountAccepted, AccountRejected:
		return true
	default:
		return false
	}
}

// Account is a publisher on an external service.
type Account struct {
	Service    string
	ExternalID string
	Status     AccountStatus
	Name       string
	URL        string
	ErrorKind  string
	ScanRecord
	Extra     map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Record returns the account's scan record, or nil when it was never scanned.
func (a *Account) Record() *ScanRecord {
	if a == nil || a.Depth == "" {
		return nil
	}
	rec := a.ScanRecord
	return &rec
}

// ContentRef identifies a content item across services.
type ContentRef struct {
	Service string
	ID      string
}

func (r ContentRef) String() string {
	return fmt.Sprintf("%s:%s", r.Service, r.ID)
}

// Content is a single downloadable item published by an account.
type Content struct {
	Service         string
	ID              string
	OwnerID         string
	Title           string
	Description     string
	DurationSeconds int64
	PublishedAt     *time.Time
	ThumbnailURL    string
	ErrorKind       string
	ErrorMessage    string
	ScanRecord
	Extra     map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref returns the content key.
func (c *Content) Ref() ContentRef {
	return ContentRef{Service: c.Service, ID: c.ID}
}

// Record returns the content's scan record, or nil when c is nil.
func (c *Content) Record() *ScanRecord {
	if c == nil || c.Depth == "" {
		return nil
	}
	rec := c.ScanRecord
	return &rec
}

// Terminal reports whether c is a terminal error marker.
func (c *Content) Terminal() bool {
	return c != nil && c.Depth.IsFull() && c.ErrorKind != ""
}

// Download is the physical file backing a content item in its primary archive.
type Download struct {
	Service      string
	ContentID    string
	Path         string
	RelativePath string
	Format       string
	SizeBytes    int64
	CreatedAt    time.Time
}

// Ref returns the key of the downloaded content.
func (d *Download) Ref() ContentRef {
	return ContentRef{Service: d.Service, ID: d.ContentID}
}

// Stats summarises catalog contents.
type Stats struct {
	Accounts         int
	AcceptedAccounts int
	Content          int
	FullContent      int
	PartialContent   int
	TerminalContent  int
	Downloads        int
	Pending          int
	DownloadedBytes  int64
}
