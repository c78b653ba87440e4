package config

const (
	defaultConfigPath            = "~/.config/archivist/config.toml"
	defaultStateDir              = "~/.local/share/archivist"
	defaultStagingDir            = "~/.local/share/archivist/staging"
	defaultLogDir                = "~/.local/share/archivist/logs"
	defaultLogRetentionDays      = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultDownloadWorkers       = 5
	defaultDownloadIdleDelay     = 1
	defaultScanIdleDelay         = 1
	defaultErrorRetryInterval    = 10
	defaultReconcileInterval     = 3600
	defaultDownloadAttempts      = 3
	defaultDownloadRetryDelay    = 5
	defaultYtdlpBinary           = "yt-dlp"
	defaultYouTubeFormat         = "bv*+ba"
	defaultYouTubeMergeFormat    = "mkv"
	defaultYouTubeRequestTimeout = 120
	defaultYouTubeListTimeout    = 300
	defaultAccountUpdateGapHours = 24
	defaultContentUpdateGapHours = 168
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Workflow: Workflow{
			DownloadWorkers:    defaultDownloadWorkers,
			DownloadIdleDelay:  defaultDownloadIdleDelay,
			ScanIdleDelay:      defaultScanIdleDelay,
			ErrorRetryInterval: defaultErrorRetryInterval,
			ReconcileInterval:  defaultReconcileInterval,
			DownloadAttempts:   defaultDownloadAttempts,
			DownloadRetryDelay: defaultDownloadRetryDelay,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Services: Services{
			YouTube: YouTube{
				Enabled:        true,
				YtdlpBinary:    defaultYtdlpBinary,
				Format:         defaultYouTubeFormat,
				MergeFormat:    defaultYouTubeMergeFormat,
				RequestTimeout: defaultYouTubeRequestTimeout,
				ListTimeout:    defaultYouTubeListTimeout,
			},
		},
	}
}
