package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"archivist/internal/catalog"
	"archivist/internal/extractor"
)

// FakeExtractor is an in-memory extractor that counts calls per identifier.
type FakeExtractor struct {
	service string

	mu             sync.Mutex
	listings       map[string]*extractor.AccountListing
	listErrors     map[string]error
	details        map[string]*extractor.ContentDetail
	detailErrors   map[string]error
	downloadErrors map[string]error
	listCalls      map[string]int
	detailCalls    map[string]int
	downloadCalls  map[string]int

	// DownloadHook, when set, runs before each download writes its file.
	DownloadHook func(ctx context.Context, contentID string)
}

// NewFakeExtractor returns an empty fake for service.
func NewFakeExtractor(service string) *FakeExtractor {
	return &FakeExtractor{
		service:        service,
		listings:       make(map[string]*extractor.AccountListing),
		listErrors:     make(map[string]error),
		details:        make(map[string]*extractor.ContentDetail),
		detailErrors:   make(map[string]error),
		downloadErrors: make(map[string]error),
		listCalls:      make(map[string]int),
		detailCalls:    make(map[string]int),
		downloadCalls:  make(map[string]int),
	}
}

// SetListing configures the listing returned for accountID. Content IDs are
// listed at the listed depth.
func (f *FakeExtractor) SetListing(accountID, name string, contentIDs ...string) {
	listing := &extractor.AccountListing{Account: extractor.AccountInfo{ID: accountID, Name: name}}
	for _, id := range contentIDs {
		listing.Content = append(listing.Content, extractor.ContentSummary{
			ID:      id,
			OwnerID: accountID,
			Title:   "Title " + id,
			Kind:    catalog.DepthListed,
		})
	}
	f.mu.Lock()
	f.listings[accountID] = listing
	f.mu.Unlock()
}

// SetListError makes ListAccount fail for accountID.
func (f *FakeExtractor) SetListError(accountID string, err error) {
	f.mu.Lock()
	f.listErrors[accountID] = err
	f.mu.Unlock()
}

// SetDetail configures the detail returned for contentID.
func (f *FakeExtractor) SetDetail(detail *extractor.ContentDetail) {
	f.mu.Lock()
	f.details[detail.ID] = detail
	f.mu.Unlock()
}

// SetDetailError makes GetContentDetail fail for contentID.
func (f *FakeExtractor) SetDetailError(contentID string, err error) {
	f.mu.Lock()
	f.detailErrors[contentID] = err
	f.mu.Unlock()
}

// SetDownloadError makes Download fail for contentID.
func (f *FakeExtractor) SetDownloadError(contentID string, err error) {
	f.mu.Lock()
	f.downloadErrors[contentID] = err
	f.mu.Unlock()
}

func (f *FakeExtractor) Service() string { return f.service }

func (f *FakeExtractor) ListAccount(_ context.Context, accountID string) (*extractor.AccountListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[accountID]++
	if err := f.listErrors[accountID]; err != nil {
		return nil, err
	}
	listing, ok := f.listings[accountID]
	if !ok {
		return &extractor.AccountListing{Account: extractor.AccountInfo{ID: accountID}}, nil
	}
	return listing, nil
}

func (f *FakeExtractor) GetContentDetail(_ context.Context, contentID string) (*extractor.ContentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls[contentID]++
	if err := f.detailErrors[contentID]; err != nil {
		return nil, err
	}
	if detail, ok := f.details[contentID]; ok {
		return detail, nil
	}
	return &extractor.ContentDetail{ID: contentID, Title: "Title " + contentID}, nil
}

func (f *FakeExtractor) Download(ctx context.Context, owner *catalog.Account, content *catalog.Content, stagingDir string) (*extractor.Result, error) {
	f.mu.Lock()
	f.downloadCalls[content.ID]++
	err := f.downloadErrors[content.ID]
	hook := f.DownloadHook
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, content.ID)
	}
	if err != nil {
		return nil, err
	}

	rel := filepath.Join(owner.ExternalID, content.ID+".mkv")
	local := filepath.Join(stagingDir, rel)
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return nil, err
	}
	payload := []byte(fmt.Sprintf("content:%s", content.ID))
	if err := os.WriteFile(local, payload, 0o644); err != nil {
		return nil, err
	}
	return &extractor.Result{LocalPath: local, RelativePath: rel, Format: "fake", SizeBytes: int64(len(payload))}, nil
}

// ListCalls returns how often ListAccount ran for accountID.
func (f *FakeExtractor) ListCalls(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls[accountID]
}

// DetailCalls returns how often GetContentDetail ran for contentID.
func (f *FakeExtractor) DetailCalls(contentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[contentID]
}

// DownloadCalls returns how often Download ran for contentID.
func (f *FakeExtractor) DownloadCalls(contentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloadCalls[contentID]
}

// TotalDownloadCalls returns the number of Download invocations.
func (f *FakeExtractor) TotalDownloadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.downloadCalls {
		total += n
	}
	return total
}
