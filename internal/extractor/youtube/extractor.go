package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/extractor"
	"archivist/internal/services"
	"archivist/internal/services/ytdlp"
)

const (
	channelURLTemplate = "https://www.youtube.com/channel/%s"
	videoURLTemplate   = "https://www.youtube.com/watch?v=%s"
	outputTemplate     = "%(channel_id)s/%(id)s.f%(format_id)s.%(ext)s"
)

// CLI is the subset of the yt-dlp client the extractor calls.
type CLI interface {
	Metadata(ctx context.Context, url string) (*ytdlp.Info, error)
	Channel(ctx context.Context, url string) (*ytdlp.Info, error)
	Download(ctx context.Context, url, dir, outputTemplate string) (*ytdlp.DownloadResult, error)
}

// Option configures the extractor.
type Option func(*Extractor)

// WithLister replaces the playlist lister.
func WithLister(lister PlaylistLister) Option {
	return func(e *Extractor) {
		if lister != nil {
			e.lister = lister
		}
	}
}

// WithCLI replaces the yt-dlp client.
func WithCLI(cli CLI) Option {
	return func(e *Extractor) {
		if cli != nil {
			e.cli = cli
		}
	}
}

// Extractor lists, describes, and downloads YouTube videos.
type Extractor struct {
	lister PlaylistLister
	cli    CLI
}

var _ extractor.Extractor = (*Extractor)(nil)

// New builds a YouTube extractor from the service configuration.
func New(cfg config.YouTube, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		lister: ytgetLister{timeout: time.Duration(cfg.ListTimeout) * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cli == nil {
		client, err := ytdlp.New(ytdlp.Config{
			Binary:                cfg.YtdlpBinary,
			Format:                cfg.Format,
			MergeFormat:           cfg.MergeFormat,
			RequestTimeoutSeconds: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("youtube extractor: %w", err)
		}
		e.cli = client
	}
	return e, nil
}

func (e *Extractor) Service() string { return config.ServiceYouTube }

// UploadsPlaylistID maps a channel ID to its uploads playlist.
func UploadsPlaylistID(channelID string) (string, bool) {
	if len(channelID) < 3 || !strings.HasPrefix(channelID, "UC") {
		return "", false
	}
	return "UU" + channelID[2:], true
}

// ListAccount lists every upload of the channel.
func (e *Extractor) ListAccount(ctx context.Context, channelID string) (*extractor.AccountListing, error) {
	playlistID, ok := UploadsPlaylistID(channelID)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "youtube", "list account", fmt.Sprintf("%q is not a channel id", channelID), nil)
	}

	info, err := e.cli.Channel(ctx, fmt.Sprintf(channelURLTemplate, channelID))
	if err != nil {
		return nil, err
	}

	entries, err := e.lister.ListPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrNoContent, "youtube", "list account", "channel has no uploads", nil)
	}

	listing := &extractor.AccountListing{
		Account: extractor.AccountInfo{
			ID:   channelID,
			Name: firstNonEmpty(info.Channel, info.Uploader, info.Title),
			URL:  firstNonEmpty(info.ChannelURL, fmt.Sprintf(channelURLTemplate, channelID)),
		},
		Content: make([]extractor.ContentSummary, 0, len(entries)),
	}
	if info.UploaderID != "" {
		listing.Account.Extra = map[string]any{"handle": info.UploaderID}
	}
	for _, entry := range entries {
		listing.Content = append(listing.Content, extractor.ContentSummary{
			ID:      entry.VideoID,
			OwnerID: channelID,
			Title:   entry.Title,
			Kind:    catalog.DepthListed,
		})
	}
	return listing, nil
}

// GetContentDetail fetches full metadata for a video.
func (e *Extractor) GetContentDetail(ctx context.Context, videoID string) (*extractor.ContentDetail, error) {
	info, err := e.cli.Metadata(ctx, fmt.Sprintf(videoURLTemplate, videoID))
	if err != nil {
		return nil, err
	}
	switch info.LiveStatus {
	case "is_upcoming", "is_live":
		return nil, services.Wrap(services.ErrTransient, "youtube", "content detail", "stream has not finished", nil)
	}

	detail := &extractor.ContentDetail{
		ID:              info.ID,
		OwnerID:         info.ChannelID,
		Title:           info.Title,
		Description:     info.Description,
		DurationSeconds: int64(info.Duration),
		PublishedAt:     info.PublishedAt(),
		ThumbnailURL:    info.Thumbnail,
		Extra:           map[string]any{},
	}
	if info.ViewCount > 0 {
		detail.Extra["view_count"] = info.ViewCount
	}
	if len(info.Tags) > 0 {
		detail.Extra["tags"] = info.Tags
	}
	if info.Availability != "" {
		detail.Extra["availability"] = info.Availability
	}
	if info.WebpageURL != "" {
		detail.Extra["webpage_url"] = info.WebpageURL
	}
	if len(detail.Extra) == 0 {
		detail.Extra = nil
	}
	return detail, nil
}

// Download fetches the video into stagingDir.
func (e *Extractor) Download(ctx context.Context, _ *catalog.Account, content *catalog.Content, stagingDir string) (*extractor.Result, error) {
	if content == nil {
		return nil, services.Wrap(services.ErrValidation, "youtube", "download", "content required", nil)
	}
	res, err := e.cli.Download(ctx, fmt.Sprintf(videoURLTemplate, content.ID), stagingDir, outputTemplate)
	if err != nil {
		return nil, err
	}

	local := res.Path
	if !filepath.IsAbs(local) {
		local = filepath.Join(stagingDir, local)
	}
	rel, err := filepath.Rel(stagingDir, local)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil, services.Wrap(services.ErrExternalTool, "youtube", "download", fmt.Sprintf("output %q outside staging dir", local), err)
	}
	info, err := os.Stat(local)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrExternalTool, "youtube", "download", "reported output file missing", err)
		}
		return nil, services.Wrap(services.ErrTransient, "youtube", "download", "stat output", err)
	}
	return &extractor.Result{
		LocalPath:    local,
		RelativePath: rel,
		Format:       res.Format,
		SizeBytes:    info.Size(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
