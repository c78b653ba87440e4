package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/daemon"
	"archivist/internal/logging"
	"archivist/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, path, and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				running, err := daemon.Probe(cfg)
				if err != nil {
					return err
				}
				pid := readPID(cfg.PIDPath())
				statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
				checks := preflight.RunAll(cmd.Context(), cfg)
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"daemon_running": running,
						"pid":            pid,
						"database":       cfg.DatabasePath(),
						"dependencies":   statuses,
						"preflight":      checks,
						"stats":          stats,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				if running {
					detail := "Running"
					if pid > 0 {
						detail = fmt.Sprintf("Running (pid %d)", pid)
					}
					fmt.Fprintln(out, renderStatusLine("Archivist", statusOK, detail, colorize))
				} else {
					fmt.Fprintln(out, renderStatusLine("Archivist", statusInfo, "Not running", colorize))
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, cfg.DatabasePath(), colorize))
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range dependencyLines(statuses, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Paths", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, line := range preflightLines(checks, colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Catalog", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprint(out, renderTable([]string{"Metric", "Count"}, statsRows(stats), []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func statsRows(stats catalog.Stats) [][]string {
	return [][]string{
		{"Accounts", strconv.Itoa(stats.Accounts)},
		{"Accepted accounts", strconv.Itoa(stats.AcceptedAccounts)},
		{"Content", strconv.Itoa(stats.Content)},
		{"Fully scanned", strconv.Itoa(stats.FullContent)},
		{"Partially scanned", strconv.Itoa(stats.PartialContent)},
		{"Unavailable", strconv.Itoa(stats.TerminalContent)},
		{"Pending download", strconv.Itoa(stats.Pending)},
		{"Downloads", strconv.Itoa(stats.Downloads)},
		{"Downloaded size", logging.FormatBytes(stats.DownloadedBytes)},
	}
}

// readPID returns the PID recorded by a running daemon, or 0.
func readPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
