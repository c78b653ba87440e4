package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"archivist/internal/logging"
	"archivist/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean the download staging area",
	}
	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))
	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			var total int64
			for _, dir := range dirs {
				total += dir.Size
			}

			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      cfg.Paths.StagingDir,
					"directories":      dirs,
					"total_size_bytes": total,
				})
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}
			fmt.Fprintf(out, "Staging directory: %s\n\n", cfg.Paths.StagingDir)
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					dir.Name,
					formatDuration(time.Since(dir.ModTime).Truncate(time.Minute)),
					logging.FormatBytes(dir.Size),
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Directory", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
				fmt.Sprintf("%d directories", len(dirs)), "", logging.FormatBytes(total),
			))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover staging directories",
		Long: `Remove leftover staging directories.

Workers remove their own directory when an attempt ends, so anything left
behind comes from a crash. By default only entries older than --older-than are
removed; --all clears the whole staging area. Both refuse to run while the
daemon is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requireDaemonStopped(cfg); err != nil {
				return err
			}

			var result staging.CleanResult
			if cleanAll {
				result, err = staging.Reset(cmd.Context(), cfg.Paths.StagingDir, logging.NewNop())
				if err != nil {
					return err
				}
			} else {
				result = staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, olderThan, logging.NewNop())
			}

			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{
					"removed": len(result.Removed),
					"errors":  errs,
				})
			}
			out := cmd.OutOrStdout()
			if len(result.Removed) == 0 && len(result.Errors) == 0 {
				fmt.Fprintln(out, "No staging directories to clean")
				return nil
			}
			fmt.Fprintf(out, "Removed %d staging entries", len(result.Removed))
			if len(result.Errors) > 0 {
				fmt.Fprintf(out, ", %d errors", len(result.Errors))
			}
			fmt.Fprintln(out)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only remove entries older than this")
	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every staging entry regardless of age")
	return cmd
}
