package ytdlp

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"archivist/internal/services"
)

var (
	unavailableMarkers = []string{
		"private video",
		"video unavailable",
		"this video is unavailable",
		"has been removed",
		"members-only",
		"join this channel to get access",
		"account associated with this video has been terminated",
		"sign in to confirm your age",
	}
	notFoundMarkers = []string{
		"does not exist",
		"http error 404",
		"unable to download api page",
	}
	noContentMarkers = []string{
		"has no videos",
		"does not have a videos tab",
	}
	transientMarkers = []string{
		"http error 429",
		"http error 5",
		"timed out",
		"connection reset",
		"temporary failure",
		"sign in to confirm you're not a bot",
		// Scheduled premieres and live events become downloadable later.
		"this live event will begin",
		"premieres in",
		"unable to extract",
	}
)

// classify converts a failed invocation into an error carrying one of the
// services markers. stderr is matched case-insensitively; the last ERROR line
// is kept as the message.
func classify(operation string, stderr []string, err error) error {
	message := lastErrorLine(stderr)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, operation, "command timed out", err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, component, operation, "binary not found", err)
	}

	lower := strings.ToLower(strings.Join(stderr, "\n"))
	switch {
	case containsAny(lower, transientMarkers):
		return services.Wrap(services.ErrTransient, component, operation, message, err)
	case containsAny(lower, unavailableMarkers):
		return services.Wrap(services.ErrUnavailable, component, operation, message, err)
	case containsAny(lower, noContentMarkers):
		return services.Wrap(services.ErrNoContent, component, operation, message, err)
	case containsAny(lower, notFoundMarkers):
		return services.Wrap(services.ErrNotFound, component, operation, message, err)
	default:
		return services.Wrap(services.ErrExternalTool, component, operation, message, err)
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func lastErrorLine(stderr []string) string {
	for i := len(stderr) - 1; i >= 0; i-- {
		line := strings.TrimSpace(stderr[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	for i := len(stderr) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(stderr[i]); line != "" {
			return line
		}
	}
	return "command failed"
}
