package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"archivist/internal/deps"
	"archivist/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Archivist", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Archivist:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Archivist", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "yt-dlp", Available: false, Detail: `binary "yt-dlp" not found`},
		{Name: "FFmpeg", Available: false, Optional: true},
		{Name: "other", Available: true, Version: "1.0", Path: "/usr/bin/other"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] missing yt-dlp") {
		t.Fatalf("expected summary naming the missing binary, got %q", lines[0])
	}
	if !strings.Contains(lines[2], "[WARN] not available") {
		t.Fatalf("expected optional binary to warn, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[OK] Ready (1.0) /usr/bin/other") {
		t.Fatalf("unexpected ready line %q", lines[3])
	}

	if lines := dependencyLines(nil, false); len(lines) != 1 || !strings.Contains(lines[0], "no services enabled") {
		t.Fatalf("unexpected lines for no requirements: %v", lines)
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Staging directory", Passed: false, Blocking: true, Detail: "gone"},
		{Name: "Archive usb", Passed: false, Detail: "unplugged"},
		{Name: "State directory", Passed: true, Detail: "ok"},
	}, false)
	for i, want := range []string{"[ERROR] gone", "[WARN] unplugged", "[OK] ok"} {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d: expected %q in %q", i, want, lines[i])
		}
	}
}

func TestRenderTableFooter(t *testing.T) {
	out := renderTable([]string{"Name", "Size"}, [][]string{{"a", "1 kB"}, {"b"}}, []columnAlignment{alignLeft, alignRight}, "total", "1 kB")
	if !strings.Contains(out, "total") || strings.Contains(out, "TOTAL") {
		t.Fatalf("expected footer in original case:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
