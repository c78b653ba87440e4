package logging

import (
	"context"
	"log/slog"
	"time"
)

// Structured field keys shared by every archivist component.
const (
	FieldComponent     = "component"
	FieldService       = "service"
	FieldAccountID     = "account_id"
	FieldContentID     = "content_id"
	FieldArchive       = "archive"
	FieldWorker        = "worker"
	FieldCorrelationID = "correlation_id"

	// FieldEventType names what happened, e.g. "scan_complete".
	FieldEventType = "event_type"
	// FieldErrorHint tells an operator what to look at next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes what the failure costs the archive.
	FieldImpact = "impact"
	// FieldAlert marks lines that need operator attention.
	FieldAlert = "alert"
)

const (
	defaultErrorHint = "check logs for details"
	defaultImpact    = "operation completed with warnings"
)

// Attr aliases keep call sites on a single import.
type (
	Attr  = slog.Attr
	Value = slog.Value
)

func String(key, value string) Attr { return slog.String(key, value) }
func Int(key string, value int) Attr { return slog.Int(key, value) }
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }
func Bool(key string, value bool) Attr { return slog.Bool(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }
func Any(key string, value any) Attr { return slog.Any(key, value) }

// Alert tags a line with an alert kind.
func Alert(kind string) Attr { return slog.String(FieldAlert, kind) }

// Error wraps err under the "error" key. A nil error is rendered explicitly
// so a missing cause is visible in the output.
func Error(err error) Attr {
	if err != nil {
		return slog.Any("error", err)
	}
	return slog.String("error", "<nil>")
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags base with a component name. A nil base yields a
// no-op logger.
func NewComponentLogger(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		base = NewNop()
	}
	return base.With(slog.String(FieldComponent, component))
}

// WarnWithContext logs at warn level. The event type is always set, and an
// error hint and impact are filled in when the caller did not provide them.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		slog.String(FieldEventType, eventType),
		slog.String(FieldErrorHint, defaultErrorHint),
		slog.String(FieldImpact, defaultImpact),
	)
	logger.LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...)
}

// ErrorWithContext logs at error level with an event type and error hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		slog.String(FieldEventType, eventType),
		slog.String(FieldErrorHint, defaultErrorHint),
	)
	logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

// withDefaults appends each default whose key is absent from attrs.
func withDefaults(attrs []Attr, defaults ...Attr) []Attr {
	present := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		present[a.Key] = true
	}
	out := attrs
	for _, d := range defaults {
		if !present[d.Key] {
			out = append(out, d)
		}
	}
	return out
}

func toArgs(attrs []Attr) []any {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return args
}
