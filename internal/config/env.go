package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "archivist"

// envOverrides holds values read from ARCHIVIST_* variables. Nil fields were
// not set in the environment and leave the file value alone.
type envOverrides struct {
	StateDir        *string `envconfig:"STATE_DIR"`
	StagingDir      *string `envconfig:"STAGING_DIR"`
	LogDir          *string `envconfig:"LOG_DIR"`
	LogLevel        *string `envconfig:"LOG_LEVEL"`
	LogFormat       *string `envconfig:"LOG_FORMAT"`
	DownloadWorkers *int    `envconfig:"DOWNLOAD_WORKERS"`
	YtdlpBinary     *string `envconfig:"YTDLP_BINARY"`
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("read environment overrides: %w", err)
	}
	if env.StateDir != nil {
		c.Paths.StateDir = *env.StateDir
	}
	if env.StagingDir != nil {
		c.Paths.StagingDir = *env.StagingDir
	}
	if env.LogDir != nil {
		c.Paths.LogDir = *env.LogDir
	}
	if env.LogLevel != nil {
		c.Logging.Level = *env.LogLevel
	}
	if env.LogFormat != nil {
		c.Logging.Format = *env.LogFormat
	}
	if env.DownloadWorkers != nil {
		c.Workflow.DownloadWorkers = *env.DownloadWorkers
	}
	if env.YtdlpBinary != nil {
		c.Services.YouTube.YtdlpBinary = *env.YtdlpBinary
	}
	return nil
}
