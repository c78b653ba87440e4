package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/daemon"
	"archivist/internal/deps"
	"archivist/internal/logging"
	"archivist/internal/preflight"
	"archivist/internal/staging"
	"archivist/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the archivist daemon and blocks until it is signalled or every
// background loop has returned.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("archivist-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update archivist.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "archivist-*.log", Exclude: []string{logPath}},
	)

	if err := checkReadiness(signalCtx, logger, cfg); err != nil {
		return err
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		return err
	}

	registry := archives.New(cfg)
	if _, err := SeedAccounts(signalCtx, store, registry, logger); err != nil {
		store.Close()
		return err
	}
	if result, err := staging.Reset(signalCtx, cfg.Paths.StagingDir, logger); err != nil {
		store.Close()
		return fmt.Errorf("reset staging: %w", err)
	} else if len(result.Errors) > 0 {
		logging.WarnWithContext(logger, "staging reset left entries behind", "staging_reset_incomplete",
			logging.Int("failed", len(result.Errors)),
			logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
			logging.String(logging.FieldImpact, "leftover partial files use disk space"),
		)
	}

	extractors, err := BuildExtractors(cfg)
	if err != nil {
		store.Close()
		return err
	}

	manager := workflow.NewManager(cfg, store, registry, extractors, logger)
	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		store.Close()
		return err
	}

	select {
	case <-signalCtx.Done():
		logger.Info("archivist daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	case <-d.Done():
		logger.Warn("background loops exited on their own",
			logging.String(logging.FieldEventType, "daemon_loops_exited"),
			logging.String(logging.FieldImpact, "no further scans or downloads until restart"),
		)
	}

	if err := d.Close(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon stopped with error",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_stop_error"),
		)
		return err
	}
	return nil
}

// checkReadiness logs the dependency snapshot and preflight results, and
// fails when a blocking check or a required binary is missing.
func checkReadiness(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	statuses := preflight.CheckSystemDeps(ctx, cfg)
	logDependencySnapshot(logger, statuses)
	if missing := deps.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("required binary %s unavailable: %s", missing[0].Name, missing[0].Detail)
	}

	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if result.Passed {
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Bool("blocking", result.Blocking),
			logging.String(logging.FieldErrorHint, "create the directory or fix its permissions"),
		)
	}
	if blocking := preflight.Blocking(results); len(blocking) > 0 {
		return fmt.Errorf("preflight %s failed: %s", blocking[0].Name, blocking[0].Detail)
	}
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "archivist.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, statuses []deps.Status) {
	attrs := []any{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, status := range statuses {
		attrs = append(attrs,
			logging.Bool(status.Name+"_available", status.Available),
			logging.String(status.Name+"_binary", status.Command),
		)
		if status.Version != "" {
			attrs = append(attrs, logging.String(status.Name+"_version", status.Version))
		}
	}
	logger.Info("dependency snapshot", attrs...)
}
