package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"archivist/internal/logging"
	"archivist/internal/services"
)

func TestConsoleLoggerLiftsSubjectIntoHeader(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, ErrorOutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithService(context.Background(), "youtube")
	ctx = services.WithContentID(ctx, "V1")
	ctx = services.WithWorker(ctx, 2)
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "download")).Info("download complete",
		logging.String(logging.FieldArchive, "main"),
		logging.Int64("size_bytes", 2_500_000),
	)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	for _, fragment := range []string{"INFO [download] Youtube · V1 · worker 2 – download complete", "- Archive: main", "- Size: 2.5 MB"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in console output:\n%s", fragment, out)
		}
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller", logging.String("staging_dir", "/tmp/x"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", data)
	}
	if !strings.Contains(string(data), "staging_dir: /tmp/x") {
		t.Fatalf("expected raw debug field, got %q", data)
	}
}

func TestJSONLoggerUsesStableKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "replica failed", "replica_failed", logging.Error(errors.New("disk full")))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, data)
	}
	if entry["level"] != "warn" || entry["msg"] != "replica failed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %s to be injected, got %v", key, entry)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFormatBytes(t *testing.T) {
	if got := logging.FormatBytes(1_000_000); got != "1.0 MB" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := logging.FormatBytes(0); got != "0 B" {
		t.Fatalf("unexpected format: %q", got)
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "archivist-old.log")
	newPath := filepath.Join(dir, "archivist-new.log")
	keepPath := filepath.Join(dir, "archivist-current.log")
	for _, path := range []string{oldPath, newPath, keepPath} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{oldPath, keepPath} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 5, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "archivist-*.log",
		Exclude: []string{keepPath},
	})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{newPath, keepPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
}

func TestContextFieldsCarryIdentifiers(t *testing.T) {
	ctx := services.WithService(context.Background(), "youtube")
	ctx = services.WithAccountID(ctx, "UCa")
	ctx = services.WithWorker(ctx, 0)

	got := map[string]string{}
	for _, attr := range logging.ContextFields(ctx) {
		got[attr.Key] = attr.Value.String()
	}
	want := map[string]string{logging.FieldService: "youtube", logging.FieldAccountID: "UCa", logging.FieldWorker: "0"}
	for key, value := range want {
		if got[key] != value {
			t.Fatalf("expected %s=%s, got %v", key, value, got)
		}
	}
	if _, ok := got[logging.FieldContentID]; ok {
		t.Fatalf("unexpected content id in %v", got)
	}
}

func TestConsoleLoggerFlattensGroupsAndHidesDirs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "groups.log")
	logger, err := logging.New(logging.Options{Level: "warning", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped below level")
	logger.WithGroup("replica").Warn("link fell back to copy",
		logging.String("archive", "backup"),
		logging.String("work_dir", "/tmp/w"),
	)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped below level") {
		t.Fatalf("info line should be filtered at warn level:\n%s", out)
	}
	for _, fragment := range []string{"WARN – link fell back to copy", "- Replica Archive: backup", "+ 1 more field hidden"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in console output:\n%s", fragment, out)
		}
	}
}
