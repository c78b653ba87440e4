package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrNoContent     = errors.New("no content")
	ErrUnavailable   = errors.New("content unavailable")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPermanent reports whether retrying err can never succeed. Permanent
// failures are recorded as terminal markers instead of being retried.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNoContent),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration):
		return true
	default:
		return false
	}
}

// IsContentGone reports whether err says the remote item itself is missing,
// removed, or restricted. Only these failures become terminal markers.
func IsContentGone(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoContent) ||
		errors.Is(err, ErrUnavailable)
}

// IsLocal reports whether err comes from this host's setup (a missing binary,
// bad configuration, invalid arguments) rather than from the remote service.
func IsLocal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation)
}

// ErrorKind returns a short stable label for the first marker found in err.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoContent):
		return "no_content"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "transient"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
