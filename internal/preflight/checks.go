package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"archivist/internal/config"
	"archivist/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// SystemRequirements lists the binaries the enabled extractors need.
func SystemRequirements(cfg *config.Config) []deps.Requirement {
	var requirements []deps.Requirement
	if cfg == nil {
		return requirements
	}
	if cfg.Services.YouTube.Enabled {
		requirements = append(requirements,
			deps.Requirement{
				Name:        "yt-dlp",
				Command:     cfg.Services.YouTube.YtdlpBinary,
				Description: "Required for YouTube metadata and downloads",
				VersionArgs: []string{"--version"},
			},
			deps.Requirement{
				Name:        "FFmpeg",
				Command:     "ffmpeg",
				Description: "Used by yt-dlp to merge separate audio and video streams",
				Optional:    true,
				VersionArgs: []string{"-version"},
			},
		)
	}
	return requirements
}

// CheckSystemDeps evaluates SystemRequirements. The daemon and the status
// command share it so both report the same list.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(ctx, SystemRequirements(cfg))
}
