package preflight

import (
	"context"
	"fmt"

	"archivist/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Blocking bool
}

// RunAll checks the state and staging directories and every archive root.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		blocking(CheckDirectoryAccess("State directory", cfg.Paths.StateDir)),
		blocking(CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir)),
	}
	for _, archive := range cfg.Archives {
		if ctx.Err() != nil {
			break
		}
		results = append(results, CheckDirectoryAccess(fmt.Sprintf("Archive %s", archive.Name), archive.DestinationRoot))
	}
	return results
}

// Blocking returns the failed results that must stop the daemon.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if result.Blocking && !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

func blocking(result Result) Result {
	result.Blocking = true
	return result
}
