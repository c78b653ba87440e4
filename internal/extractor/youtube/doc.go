// Package youtube implements the extractor for YouTube channels.
//
// Channel uploads are listed through the uploads playlist (the channel ID
// with its UC prefix swapped for UU) using the ytget playlist client, which
// needs no external binary. Channel metadata, video detail, and downloads go
// through the yt-dlp CLI wrapper in services/ytdlp.
package youtube
