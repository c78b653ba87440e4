package testsupport

import (
	"context"
	"log/slog"
	"sync"

	"archivist/internal/logging"
)

// LogRecorder is a slog.Handler that keeps every record at debug and above so
// tests can count structured events.
type LogRecorder struct {
	shared *recorded
	attrs  []slog.Attr
}

type recorded struct {
	mu     sync.Mutex
	events []map[string]string
}

// NewLogRecorder returns a recorder and a logger writing to it.
func NewLogRecorder() (*LogRecorder, *slog.Logger) {
	rec := &LogRecorder{shared: &recorded{}}
	return rec, slog.New(rec)
}

func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	fields := map[string]string{"msg": record.Message}
	for _, a := range r.attrs {
		fields[a.Key] = a.Value.String()
	}
	record.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.String()
		return true
	})
	r.shared.mu.Lock()
	r.shared.events = append(r.shared.events, fields)
	r.shared.mu.Unlock()
	return nil
}

func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &LogRecorder{shared: r.shared}
	next.attrs = append(append(next.attrs, r.attrs...), attrs...)
	return next
}

// WithGroup is flattened; tests match on leaf keys.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Count returns how many records carried the given event_type.
func (r *LogRecorder) Count(eventType string) int {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	n := 0
	for _, e := range r.shared.events {
		if e[logging.FieldEventType] == eventType {
			n++
		}
	}
	return n
}
