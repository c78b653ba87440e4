package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"archivist/internal/deps"
	"archivist/internal/preflight"
	"archivist/internal/testsupport"
)

func TestCheckDirectoryAccessOK(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccessNotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed || result.Detail == "" {
		t.Fatalf("expected failure with detail, got %+v", result)
	}
}

func TestCheckDirectoryAccessNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := preflight.CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllMarksOnlyLocalDirsBlocking(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithArchive("main", "youtube", "UCa"))
	cfg.Archives[0].DestinationRoot = filepath.Join(t.TempDir(), "unplugged")

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[2].Passed || results[2].Blocking {
		t.Fatalf("expected non-blocking failure for missing archive root, got %+v", results[2])
	}
	if blocking := preflight.Blocking(results); len(blocking) != 0 {
		t.Fatalf("expected no blocking failures, got %+v", blocking)
	}

	cfg.Paths.StagingDir = filepath.Join(t.TempDir(), "gone")
	blocking := preflight.Blocking(preflight.RunAll(context.Background(), cfg))
	if len(blocking) != 1 || blocking[0].Name != "Staging directory" {
		t.Fatalf("expected staging failure to block, got %+v", blocking)
	}
}

func TestCheckSystemDepsFollowsEnabledServices(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("yt-dlp"))
	cfg.Services.YouTube.Enabled = true

	statuses := preflight.CheckSystemDeps(context.Background(), cfg)
	if len(statuses) == 0 || statuses[0].Name != "yt-dlp" || !statuses[0].Available {
		t.Fatalf("expected stubbed yt-dlp to be available, got %+v", statuses)
	}
	if missing := deps.Missing(statuses); len(missing) != 0 {
		t.Fatalf("expected no required binaries missing, got %+v", missing)
	}

	cfg.Services.YouTube.Enabled = false
	if statuses := preflight.CheckSystemDeps(context.Background(), cfg); len(statuses) != 0 {
		t.Fatalf("expected no requirements with every service disabled, got %+v", statuses)
	}
}
