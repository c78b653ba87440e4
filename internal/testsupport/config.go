package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"archivist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, applies any provided options, and creates the
// state, staging, log, and archive directories.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Workflow.DownloadRetryDelay = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create config directories: %v", err)
	}

	return builder.cfg
}

// WithArchive appends an archive rooted under the test base directory that
// tracks the given accounts of service through a single entity.
func WithArchive(name, service string, accountIDs ...string) ConfigOption {
	return func(b *configBuilder) {
		refs := make([]config.AccountRef, 0, len(accountIDs))
		for _, id := range accountIDs {
			refs = append(refs, config.AccountRef{Service: service, ID: id})
		}
		b.cfg.Archives = append(b.cfg.Archives, config.Archive{
			Name:                  name,
			DestinationRoot:       filepath.Join(b.baseDir, "archives", name),
			AccountUpdateGapHours: 24,
			ContentUpdateGapHours: 168,
			Entities:              []config.Entity{{Name: name + "-entity", Accounts: refs}},
		})
	}
}

// WithWorkers overrides the download worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.DownloadWorkers = n
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, yt-dlp is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
