package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/testsupport"
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	cfg := testsupport.NewConfig(t,
		testsupport.WithArchive("main", "youtube", "UCa"),
		testsupport.WithArchive("backup", "youtube", "UCa"),
		testsupport.WithStubbedBinaries(),
	)
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliEnv{cfg: cfg, configPath: path}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) withStore(t *testing.T, fn func(*catalog.Store)) {
	t.Helper()
	store, err := catalog.Open(e.cfg)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	defer store.Close()
	fn(store)
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	run := func(args ...string) error {
		cmd := newRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"config", "init", "--path", target}, args...))
		return cmd.ExecuteContext(context.Background())
	}
	if err := run(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}
	if err := run(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists error, got %v", err)
	}
	if err := run("--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, env.configPath) || !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestArchivesMarksPrimary(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "--json", "archives")
	if err != nil {
		t.Fatalf("archives: %v", err)
	}
	var views []struct {
		Archive   string `json:"archive"`
		AccountID string `json:"account_id"`
		Primary   bool   `json:"primary"`
	}
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(views))
	}
	if views[0].Archive != "main" || !views[0].Primary || views[1].Archive != "backup" || views[1].Primary {
		t.Fatalf("unexpected primary marking: %+v", views)
	}
}

func TestAccountsListAndSetStatus(t *testing.T) {
	env := setupCLI(t)
	env.withStore(t, func(store *catalog.Store) {
		if _, err := store.EnsureAccount(context.Background(), "youtube", "UCa", "Channel A"); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	})

	out, err := env.run(t, "accounts", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "UCa") || !strings.Contains(out, "accepted") || !strings.Contains(out, "never") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	if _, err := env.run(t, "accounts", "set-status", "youtube", "UCa", "Rejected"); err != nil {
		t.Fatalf("set-status: %v", err)
	}
	env.withStore(t, func(store *catalog.Store) {
		account, err := store.GetAccount(context.Background(), "youtube", "UCa")
		if err != nil || account == nil {
			t.Fatalf("get account: %v", err)
		}
		if account.Status != catalog.AccountRejected {
			t.Fatalf("expected rejected, got %q", account.Status)
		}
	})

	if _, err := env.run(t, "accounts", "set-status", "youtube", "UCa", "banned"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, err := env.run(t, "accounts", "set-status", "youtube", "UCmissing", "accepted"); err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestDownloadsNewestFirstWithLimit(t *testing.T) {
	env := setupCLI(t)
	env.withStore(t, func(store *catalog.Store) {
		ctx := context.Background()
		for _, id := range []string{"v1", "v2", "v3"} {
			testsupport.SeedFullContent(t, store, "youtube", "UCa", id)
			if err := store.AddDownload(ctx, &catalog.Download{
				Service:      "youtube",
				ContentID:    id,
				Path:         filepath.Join(env.cfg.Archives[0].DestinationRoot, "UCa", id+".mkv"),
				RelativePath: filepath.Join("UCa", id+".mkv"),
				SizeBytes:    1024,
			}); err != nil {
				t.Fatalf("add download: %v", err)
			}
		}
	})

	out, err := env.run(t, "--json", "downloads", "--limit", "2")
	if err != nil {
		t.Fatalf("downloads: %v", err)
	}
	var downloads []catalog.Download
	if err := json.Unmarshal([]byte(out), &downloads); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(downloads) != 2 {
		t.Fatalf("expected 2 downloads, got %d", len(downloads))
	}

	out, err = env.run(t, "downloads")
	if err != nil {
		t.Fatalf("downloads table: %v", err)
	}
	if !strings.Contains(out, "3 shown") || !strings.Contains(out, "v2") {
		t.Fatalf("unexpected table:\n%s", out)
	}
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLI(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.StagingDir, "worker-1-v1", "UCa", "v1.part"), 64)

	out, err := env.run(t, "staging", "list")
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	if !strings.Contains(out, "worker-1-v1") {
		t.Fatalf("expected staging entry in output:\n%s", out)
	}

	if out, err := env.run(t, "staging", "clean"); err != nil || !strings.Contains(out, "No staging directories") {
		t.Fatalf("expected fresh entry to survive default clean, got %q, %v", out, err)
	}
	if out, err := env.run(t, "staging", "clean", "--all"); err != nil || !strings.Contains(out, "Removed 1") {
		t.Fatalf("expected clean --all to remove entry, got %q, %v", out, err)
	}
}

func TestMutatingCommandsRefuseWhileDaemonHoldsLock(t *testing.T) {
	env := setupCLI(t)
	lock := flock.New(env.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: %v", err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	for _, args := range [][]string{{"staging", "clean", "--all"}, {"reconcile"}} {
		if _, err := env.run(t, args...); !errors.Is(err, errDaemonRunning) {
			t.Fatalf("%v: expected errDaemonRunning, got %v", args, err)
		}
	}

	out, err := env.run(t, "--json", "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status struct {
		DaemonRunning bool `json:"daemon_running"`
	}
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if !status.DaemonRunning {
		t.Fatal("expected status to report the running daemon")
	}
}

func TestReconcileWithNothingRecorded(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "reconcile")
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !strings.Contains(out, "Checked 0 downloads") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStatusTextSections(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"== Daemon ==", "Not running", "== Dependencies ==", "yt-dlp", "== Paths ==", "Archive main", "== Catalog ==", "Pending download"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestLogsShowsTailOfCurrentRun(t *testing.T) {
	env := setupCLI(t)
	runLog := filepath.Join(env.cfg.Paths.LogDir, "archivist-20261015T000000.000Z.log")
	if err := os.WriteFile(runLog, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write run log: %v", err)
	}
	if err := os.Symlink(runLog, filepath.Join(env.cfg.Paths.LogDir, "archivist.log")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	out, err := env.run(t, "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}
