// Package ytdlp mediates access to the yt-dlp CLI used for metadata lookups
// and downloads.
//
// It normalizes command invocation, decodes the JSON info documents yt-dlp
// prints, and classifies stderr output into the services error markers so
// callers can tell a removed video from a rate limit. Command execution sits
// behind the Executor interface so tests never spawn the real binary.
package ytdlp
