package youtube

import (
	"context"
	"time"

	ytget "github.com/ytget/ytdlp/v2"

	"archivist/internal/services"
)

// PlaylistEntry is one video seen in a playlist.
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// PlaylistLister enumerates every entry of a playlist.
type PlaylistLister interface {
	ListPlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error)
}

type ytgetLister struct {
	timeout time.Duration
}

func (l ytgetLister) ListPlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	items, err := ytget.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "youtube", "list playlist", playlistID, err)
		}
		return nil, services.Wrap(services.ErrTransient, "youtube", "list playlist", playlistID, err)
	}
	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		entries = append(entries, PlaylistEntry{VideoID: it.VideoID, Title: it.Title})
	}
	return entries, nil
}
