package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateArchives(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.download_workers":     c.Workflow.DownloadWorkers,
		"workflow.download_idle_delay":  c.Workflow.DownloadIdleDelay,
		"workflow.scan_idle_delay":      c.Workflow.ScanIdleDelay,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.reconcile_interval":   c.Workflow.ReconcileInterval,
		"workflow.download_attempts":    c.Workflow.DownloadAttempts,
	}); err != nil {
		return err
	}
	if c.Workflow.DownloadRetryDelay < 0 {
		return errors.New("workflow.download_retry_delay must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateServices() error {
	yt := c.Services.YouTube
	if !yt.Enabled {
		return nil
	}
	if yt.RequestTimeout < 0 || yt.ListTimeout < 0 {
		return errors.New("services.youtube timeouts must be zero or positive")
	}
	return nil
}

func (c *Config) validateArchives() error {
	known := KnownServices()
	names := make(map[string]struct{}, len(c.Archives))
	for i, archive := range c.Archives {
		label := fmt.Sprintf("archives[%d]", i)
		if archive.Name == "" {
			return fmt.Errorf("%s.name must be set", label)
		}
		label = fmt.Sprintf("archive %q", archive.Name)
		if _, dup := names[archive.Name]; dup {
			return fmt.Errorf("%s is defined more than once", label)
		}
		names[archive.Name] = struct{}{}
		if strings.TrimSpace(archive.DestinationRoot) == "" {
			return fmt.Errorf("%s: destination_root must be set", label)
		}
		if archive.AccountUpdateGapHours < 0 || archive.ContentUpdateGapHours < 0 {
			return fmt.Errorf("%s: update gaps must be zero or positive", label)
		}
		for service, gaps := range archive.Services {
			if !slices.Contains(known, service) {
				return fmt.Errorf("%s: services.%s is not a known service (known: %s)", label, service, strings.Join(known, ", "))
			}
			if gaps.AccountUpdateGapHours < 0 || gaps.ContentUpdateGapHours < 0 {
				return fmt.Errorf("%s: services.%s update gaps must be zero or positive", label, service)
			}
		}
		for j, entity := range archive.Entities {
			if entity.Name == "" {
				return fmt.Errorf("%s: entities[%d].name must be set", label, j)
			}
			for _, ref := range entity.Accounts {
				if !slices.Contains(known, ref.Service) {
					return fmt.Errorf("%s: entity %q references unknown service %q", label, entity.Name, ref.Service)
				}
				if ref.ID == "" {
					return fmt.Errorf("%s: entity %q has a %s account without an id", label, entity.Name, ref.Service)
				}
			}
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
