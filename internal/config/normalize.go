package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeServices()
	if err := c.normalizeArchives(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.DownloadAttempts == 0 {
		c.Workflow.DownloadAttempts = defaultDownloadAttempts
	}
	if c.Workflow.ReconcileInterval == 0 {
		c.Workflow.ReconcileInterval = defaultReconcileInterval
	}
}

func (c *Config) normalizeServices() {
	yt := &c.Services.YouTube
	yt.YtdlpBinary = strings.TrimSpace(yt.YtdlpBinary)
	if yt.YtdlpBinary == "" {
		yt.YtdlpBinary = defaultYtdlpBinary
	}
	yt.Format = strings.TrimSpace(yt.Format)
	if yt.Format == "" {
		yt.Format = defaultYouTubeFormat
	}
	yt.MergeFormat = strings.ToLower(strings.TrimSpace(yt.MergeFormat))
	if yt.MergeFormat == "" {
		yt.MergeFormat = defaultYouTubeMergeFormat
	}
}

func (c *Config) normalizeArchives() error {
	for i := range c.Archives {
		archive := &c.Archives[i]
		archive.Name = strings.TrimSpace(archive.Name)
		if strings.TrimSpace(archive.DestinationRoot) != "" {
			root, err := expandPath(strings.TrimSpace(archive.DestinationRoot))
			if err != nil {
				return fmt.Errorf("archives[%d].destination_root: %w", i, err)
			}
			archive.DestinationRoot = root
		}
		if archive.AccountUpdateGapHours == 0 {
			archive.AccountUpdateGapHours = defaultAccountUpdateGapHours
		}
		if archive.ContentUpdateGapHours == 0 {
			archive.ContentUpdateGapHours = defaultContentUpdateGapHours
		}
		if len(archive.Services) > 0 {
			services := make(map[string]ServiceGaps, len(archive.Services))
			for key, gaps := range archive.Services {
				services[strings.ToLower(strings.TrimSpace(key))] = gaps
			}
			archive.Services = services
		}
		for j := range archive.Entities {
			entity := &archive.Entities[j]
			entity.Name = strings.TrimSpace(entity.Name)
			for k := range entity.Accounts {
				ref := &entity.Accounts[k]
				ref.Service = strings.ToLower(strings.TrimSpace(ref.Service))
				ref.ID = strings.TrimSpace(ref.ID)
			}
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
