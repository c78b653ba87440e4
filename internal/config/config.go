package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// ServiceYouTube is the service key for YouTube channels.
const ServiceYouTube = "youtube"

// KnownServices lists the service keys accepted in archive definitions.
func KnownServices() []string {
	return []string{ServiceYouTube}
}

// Paths contains state, staging, and log directories.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Workflow contains daemon timing and concurrency settings. Durations are in seconds.
type Workflow struct {
	DownloadWorkers    int `toml:"download_workers"`
	DownloadIdleDelay  int `toml:"download_idle_delay"`
	ScanIdleDelay      int `toml:"scan_idle_delay"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	ReconcileInterval  int `toml:"reconcile_interval"`
	DownloadAttempts   int `toml:"download_attempts"`
	DownloadRetryDelay int `toml:"download_retry_delay"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// YouTube configures the YouTube extractor.
type YouTube struct {
	Enabled        bool   `toml:"enabled"`
	YtdlpBinary    string `toml:"ytdlp_binary"`
	Format         string `toml:"format"`
	MergeFormat    string `toml:"merge_format"`
	RequestTimeout int    `toml:"request_timeout"`
	ListTimeout    int    `toml:"list_timeout"`
}

// Services groups per-service extractor settings.
type Services struct {
	YouTube YouTube `toml:"youtube"`
}

// AccountRef names one account on one service.
type AccountRef struct {
	Service string `toml:"service"`
	ID      string `toml:"id"`
}

// Entity is a person or group whose accounts an archive tracks.
type Entity struct {
	Name     string       `toml:"name"`
	Accounts []AccountRef `toml:"accounts"`
}

// ServiceGaps overrides archive-level update gaps for a single service.
// Zero values inherit the archive default.
type ServiceGaps struct {
	AccountUpdateGapHours int `toml:"account_update_gap_hours"`
	ContentUpdateGapHours int `toml:"content_update_gap_hours"`
}

// Archive is a named collection with its own destination root and freshness policy.
type Archive struct {
	Name                  string                 `toml:"name"`
	DestinationRoot       string                 `toml:"destination_root"`
	AccountUpdateGapHours int                    `toml:"account_update_gap_hours"`
	ContentUpdateGapHours int                    `toml:"content_update_gap_hours"`
	Services              map[string]ServiceGaps `toml:"services"`
	Entities              []Entity               `toml:"entities"`
}

// AccountGap returns the account re-scan interval for service.
func (a Archive) AccountGap(service string) time.Duration {
	hours := a.AccountUpdateGapHours
	if override, ok := a.Services[service]; ok && override.AccountUpdateGapHours > 0 {
		hours = override.AccountUpdateGapHours
	}
	return time.Duration(hours) * time.Hour
}

// ContentGap returns the content re-scan interval for service.
func (a Archive) ContentGap(service string) time.Duration {
	hours := a.ContentUpdateGapHours
	if override, ok := a.Services[service]; ok && override.ContentUpdateGapHours > 0 {
		hours = override.ContentUpdateGapHours
	}
	return time.Duration(hours) * time.Hour
}

// Config encapsulates all configuration values for archivist.
//
// Configuration sections by subsystem:
//   - Paths: state database, staging area, and logs
//   - Workflow: worker count, idle delays, reconcile cadence, retries
//   - Logging: log format, level, and retention
//   - Services: per-service extractor settings
//   - Archives: destination roots, freshness gaps, and tracked accounts
type Config struct {
	Paths    Paths     `toml:"paths"`
	Workflow Workflow  `toml:"workflow"`
	Logging  Logging   `toml:"logging"`
	Services Services  `toml:"services"`
	Archives []Archive `toml:"archives"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Environment
// overrides are applied after the file is decoded. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("archivist.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// Archive roots are created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable; preflight reports them instead.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, archive := range c.Archives {
		if strings.TrimSpace(archive.DestinationRoot) != "" {
			_ = os.MkdirAll(archive.DestinationRoot, 0o755)
		}
	}
	return nil
}

// DatabasePath returns the metadata store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "archivist.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "archivist.lock")
}

// PIDPath returns the daemon PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "archivist.pid")
}

// ArchiveByName returns the named archive.
func (c *Config) ArchiveByName(name string) (Archive, bool) {
	for _, archive := range c.Archives {
		if archive.Name == name {
			return archive, true
		}
	}
	return Archive{}, false
}

// ServiceEnabled reports whether the extractor for service is turned on.
func (c *Config) ServiceEnabled(service string) bool {
	switch service {
	case ServiceYouTube:
		return c.Services.YouTube.Enabled
	default:
		return false
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
