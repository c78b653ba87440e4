package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is debug, info, warn, or error. Anything else means info.
	Level string
	// Format is "console" (default) or "json".
	Format string
	// OutputPaths and ErrorOutputPaths accept file paths plus the names
	// "stdout" and "stderr". Every distinct destination receives every line.
	OutputPaths      []string
	ErrorOutputPaths []string
	// Development adds caller locations regardless of level.
	Development bool
}

// New builds a logger from opts. Files named in the output paths are created
// along with their parent directories and opened for append.
func New(opts Options) (*slog.Logger, error) {
	level := levelFromString(opts.Level)

	var build func(io.Writer, slog.Leveler, bool) slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		build = newPrettyHandler
	case "json":
		build = newJSONHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	outputs := opts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := opts.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}
	w, err := openSinks(append(append([]string{}, outputs...), errOutputs...))
	if err != nil {
		return nil, err
	}

	withSource := opts.Development || level <= slog.LevelDebug
	return slog.New(build(w, level, withSource)), nil
}

func levelFromString(value string) slog.Level {
	var level slog.Level
	v := strings.TrimSpace(value)
	if strings.EqualFold(v, "warning") {
		v = "warn"
	}
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// openSinks resolves each distinct destination once and fans writes out to
// all of them.
func openSinks(destinations []string) (io.Writer, error) {
	opened := make(map[string]bool, len(destinations))
	var sinks []io.Writer
	for _, dest := range destinations {
		dest = strings.TrimSpace(dest)
		if dest == "" || opened[dest] {
			continue
		}
		opened[dest] = true
		w, err := openSink(dest)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}
	if len(sinks) == 0 {
		return os.Stdout, nil
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return io.MultiWriter(sinks...), nil
}

func openSink(dest string) (io.Writer, error) {
	switch dest {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", dest, err)
	}
	return f, nil
}
