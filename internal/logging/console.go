package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// prettyHandler renders one header line per record followed by an indented
// field list. Identifiers (service, account, content, worker) move into the
// header; at info and above long or debug-only fields are folded into a
// "hidden" count.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	bound     []field
	prefix    string
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return &prettyHandler{mu: new(sync.Mutex), w: w, level: level, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = slices.Clone(h.bound)
	for _, a := range attrs {
		next.bound = appendField(next.bound, h.prefix, a)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := slices.Clone(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.prefix, a)
		return true
	})
	fields = lastWins(fields)

	var head header
	rest := fields[:0:0]
	for _, f := range fields {
		if head.take(f) {
			continue
		}
		rest = append(rest, f)
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}

	var buf bytes.Buffer
	buf.WriteString(consoleTime(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelName(r.Level))
	if head.component != "" {
		buf.WriteString(" [" + head.component + "]")
	}
	if subject := head.subject(); subject != "" {
		buf.WriteString(" " + subject)
	}
	buf.WriteString(" – " + msg)
	if h.addSource {
		if src := r.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')

	if r.Level < slog.LevelInfo {
		for _, f := range rest {
			buf.WriteString("    " + f.key + ": " + quotedText(f.value) + "\n")
		}
	} else {
		shown, hidden := summarize(rest)
		for _, line := range shown {
			buf.WriteString("    - " + line + "\n")
		}
		switch {
		case hidden == 1:
			buf.WriteString("    + 1 more field hidden\n")
		case hidden > 1:
			buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func appendField(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return append(dst, field{key: prefix + a.Key, value: v})
	}
	if a.Key != "" {
		prefix += a.Key + "."
	}
	for _, member := range v.Group() {
		dst = appendField(dst, prefix, member)
	}
	return dst
}

// lastWins keeps the first position of each key with its last value.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, seen := index[f.key]; seen {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

type header struct {
	component, service, account, content, worker string
}

// take records f if it belongs in the header. Only the component is removed
// from the field list; the other identifiers stay for debug output.
func (hd *header) take(f field) bool {
	switch f.key {
	case FieldComponent:
		hd.component = plainText(f.value)
		return true
	case FieldService:
		hd.service = plainText(f.value)
	case FieldAccountID:
		hd.account = plainText(f.value)
	case FieldContentID:
		hd.content = plainText(f.value)
	case FieldWorker:
		hd.worker = plainText(f.value)
	}
	return false
}

func (hd header) subject() string {
	var parts []string
	if hd.service != "" {
		parts = append(parts, titleWord(hd.service))
	}
	if ref := strings.Trim(hd.account+"/"+hd.content, "/"); ref != "" {
		parts = append(parts, ref)
	}
	if hd.worker != "" {
		parts = append(parts, "worker "+hd.worker)
	}
	return strings.Join(parts, " · ")
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}

const maxInfoValue = 160

// leadKeys are listed first at info level, in this order.
var leadKeys = []string{
	FieldAlert, FieldEventType, FieldArchive,
	"title", "path", "format", "size_bytes", "depth", "error_kind", "error",
	FieldErrorHint, FieldImpact,
}

// labels override the title-cased key.
var labels = map[string]string{
	FieldAlert:     "Alert",
	FieldEventType: "Event",
	FieldErrorHint: "Hint",
	"size_bytes":   "Size",
}

// summarize orders fields for info output and counts the ones it leaves out.
func summarize(fields []field) (lines []string, hidden int) {
	ordered := slices.Clone(fields)
	rank := func(key string) int {
		if i := slices.Index(leadKeys, key); i >= 0 {
			return i
		}
		return len(leadKeys)
	}
	slices.SortStableFunc(ordered, func(a, b field) int { return rank(a.key) - rank(b.key) })

	for _, f := range ordered {
		switch {
		case inHeader(f.key):
			continue
		case debugOnly(f.key):
			hidden++
			continue
		}
		value := infoText(f.key, f.value)
		if f.key != "error" && len(value) > maxInfoValue {
			hidden++
			continue
		}
		lines = append(lines, labelFor(f.key)+": "+value)
	}
	return lines, hidden
}

func inHeader(key string) bool {
	switch key {
	case FieldComponent, FieldService, FieldAccountID, FieldContentID, FieldWorker:
		return true
	}
	return false
}

func debugOnly(key string) bool {
	return key == FieldCorrelationID || key == "args" || strings.HasSuffix(key, "_dir")
}

func infoText(key string, v slog.Value) string {
	if strings.HasSuffix(key, "_bytes") || key == "size" {
		switch v.Kind() {
		case slog.KindInt64:
			return FormatBytes(v.Int64())
		case slog.KindUint64:
			return humanize.Bytes(v.Uint64())
		}
	}
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	return quotedText(v)
}

func labelFor(key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
