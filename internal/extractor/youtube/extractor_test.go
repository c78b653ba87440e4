package youtube_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/extractor/youtube"
	"archivist/internal/services"
	"archivist/internal/services/ytdlp"
)

type stubLister struct {
	entries []youtube.PlaylistEntry
	err     error
	ids     []string
}

func (s *stubLister) ListPlaylist(_ context.Context, playlistID string) ([]youtube.PlaylistEntry, error) {
	s.ids = append(s.ids, playlistID)
	return s.entries, s.err
}

type stubCLI struct {
	channel     *ytdlp.Info
	channelErr  error
	metadata    *ytdlp.Info
	metadataErr error
	download    func(dir string) (*ytdlp.DownloadResult, error)
}

func (s *stubCLI) Channel(context.Context, string) (*ytdlp.Info, error) {
	return s.channel, s.channelErr
}

func (s *stubCLI) Metadata(context.Context, string) (*ytdlp.Info, error) {
	return s.metadata, s.metadataErr
}

func (s *stubCLI) Download(_ context.Context, _, dir, _ string) (*ytdlp.DownloadResult, error) {
	return s.download(dir)
}

func newExtractor(t *testing.T, lister youtube.PlaylistLister, cli youtube.CLI) *youtube.Extractor {
	t.Helper()
	ext, err := youtube.New(config.Default().Services.YouTube, youtube.WithLister(lister), youtube.WithCLI(cli))
	if err != nil {
		t.Fatalf("youtube.New: %v", err)
	}
	return ext
}

func TestUploadsPlaylistID(t *testing.T) {
	if id, ok := youtube.UploadsPlaylistID("UCabc123"); !ok || id != "UUabc123" {
		t.Fatalf("unexpected mapping %q %v", id, ok)
	}
	if _, ok := youtube.UploadsPlaylistID("@handle"); ok {
		t.Fatal("expected handle to be rejected")
	}
}

func TestListAccountMapsEntries(t *testing.T) {
	lister := &stubLister{entries: []youtube.PlaylistEntry{{VideoID: "v1", Title: "One"}, {VideoID: "v2", Title: "Two"}}}
	cli := &stubCLI{channel: &ytdlp.Info{ID: "UCabc", Channel: "Chan", ChannelURL: "https://www.youtube.com/channel/UCabc"}}
	ext := newExtractor(t, lister, cli)

	listing, err := ext.ListAccount(context.Background(), "UCabc")
	if err != nil {
		t.Fatalf("ListAccount: %v", err)
	}
	if lister.ids[0] != "UUabc" {
		t.Fatalf("expected uploads playlist, got %v", lister.ids)
	}
	if listing.Account.Name != "Chan" || len(listing.Content) != 2 {
		t.Fatalf("unexpected listing %+v", listing)
	}
	for _, summary := range listing.Content {
		if summary.Kind != catalog.DepthListed || summary.OwnerID != "UCabc" {
			t.Fatalf("unexpected summary %+v", summary)
		}
	}
}

func TestListAccountEmptyChannelIsNoContent(t *testing.T) {
	ext := newExtractor(t, &stubLister{}, &stubCLI{channel: &ytdlp.Info{ID: "UCabc"}})
	_, err := ext.ListAccount(context.Background(), "UCabc")
	if !errors.Is(err, services.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestListAccountInvalidIDIsNotFound(t *testing.T) {
	ext := newExtractor(t, &stubLister{}, &stubCLI{})
	_, err := ext.ListAccount(context.Background(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAccountPropagatesChannelError(t *testing.T) {
	channelErr := services.Wrap(services.ErrNotFound, "yt-dlp", "channel", "gone", nil)
	ext := newExtractor(t, &stubLister{}, &stubCLI{channelErr: channelErr})
	_, err := ext.ListAccount(context.Background(), "UCabc")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetContentDetail(t *testing.T) {
	cli := &stubCLI{metadata: &ytdlp.Info{ID: "v1", Title: "One", ChannelID: "UCabc", Duration: 90.4, Timestamp: 1700000000, Tags: []string{"a"}}}
	ext := newExtractor(t, &stubLister{}, cli)

	detail, err := ext.GetContentDetail(context.Background(), "v1")
	if err != nil {
		t.Fatalf("GetContentDetail: %v", err)
	}
	if detail.OwnerID != "UCabc" || detail.DurationSeconds != 90 || detail.PublishedAt == nil {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.Extra["tags"] == nil {
		t.Fatalf("expected tags in extra, got %v", detail.Extra)
	}
}

func TestGetContentDetailUpcomingIsTransient(t *testing.T) {
	cli := &stubCLI{metadata: &ytdlp.Info{ID: "v1", LiveStatus: "is_upcoming"}}
	ext := newExtractor(t, &stubLister{}, cli)
	_, err := ext.GetContentDetail(context.Background(), "v1")
	if err == nil || services.IsPermanent(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestDownloadReportsRelativePath(t *testing.T) {
	staging := t.TempDir()
	cli := &stubCLI{download: func(dir string) (*ytdlp.DownloadResult, error) {
		path := filepath.Join(dir, "UCabc", "v1.f137+140.mkv")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
			return nil, err
		}
		return &ytdlp.DownloadResult{Path: path, Format: "137+140"}, nil
	}}
	ext := newExtractor(t, &stubLister{}, cli)

	owner := &catalog.Account{Service: "youtube", ExternalID: "UCabc"}
	content := &catalog.Content{Service: "youtube", ID: "v1", OwnerID: "UCabc"}
	res, err := ext.Download(context.Background(), owner, content, staging)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if res.RelativePath != filepath.Join("UCabc", "v1.f137+140.mkv") || res.SizeBytes != 5 || res.Format != "137+140" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDownloadRejectsMissingOutput(t *testing.T) {
	staging := t.TempDir()
	cli := &stubCLI{download: func(dir string) (*ytdlp.DownloadResult, error) {
		return &ytdlp.DownloadResult{Path: filepath.Join(dir, "UCabc", "missing.mkv")}, nil
	}}
	ext := newExtractor(t, &stubLister{}, cli)
	_, err := ext.Download(context.Background(), &catalog.Account{ExternalID: "UCabc"}, &catalog.Content{ID: "v1"}, staging)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}
