package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"archivist/internal/archives"
	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/daemonrun"
	"archivist/internal/logging"
	"archivist/internal/textutil"
	"archivist/internal/workflow"
)

// newManager builds a workflow manager for one-shot maintenance work. It is
// never started, so no download workers run.
func newManager(cfg *config.Config, store *catalog.Store) (*workflow.Manager, *archives.Registry, error) {
	extractors, err := daemonrun.BuildExtractors(cfg)
	if err != nil {
		return nil, nil, err
	}
	registry := archives.New(cfg)
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return workflow.NewManager(cfg, store, registry, extractors, logger), registry, nil
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one scan pass over every due account and exit",
		Long: `Run one scan pass over every due account and exit.

Accounts and content already fresh for every archive tracking them are
skipped. The pass writes through the same freshness rules as the daemon, so it
is safe to run while the daemon is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				manager, registry, err := newManager(cfg, store)
				if err != nil {
					return err
				}
				if _, err := daemonrun.SeedAccounts(cmd.Context(), store, registry, logging.NewNop()); err != nil {
					return err
				}
				results, err := manager.ScanOnce(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, results)
				}
				services := make([]string, 0, len(results))
				for service := range results {
					services = append(services, service)
				}
				sort.Strings(services)
				rows := make([][]string, 0, len(services))
				for _, service := range services {
					r := results[service]
					rows = append(rows, []string{
						textutil.ServiceLabel(service),
						strconv.Itoa(r.AccountsScanned),
						strconv.Itoa(r.AccountsMissing),
						strconv.Itoa(r.AccountsFailed),
						strconv.Itoa(r.ContentListed),
						strconv.Itoa(r.ContentDetailed),
						strconv.Itoa(r.ContentTerminal),
						strconv.Itoa(r.ContentFailed),
					})
				}
				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No services with tracked accounts and an enabled extractor")
					return nil
				}
				fmt.Fprint(out, renderTable(
					[]string{"Service", "Scanned", "Missing", "Failed", "Listed", "Detailed", "Unavailable", "Detail errors"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Prune downloads whose file is gone and restore missing replicas",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if err := requireDaemonStopped(cfg); err != nil {
					return err
				}
				manager, _, err := newManager(cfg, store)
				if err != nil {
					return err
				}
				report, err := manager.Reconcile(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, report)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checked %d downloads: %d pruned, %d replicas restored, %d failed\n",
					report.Checked, report.Pruned, report.Healed, report.Failed)
				return nil
			})
		},
	}
}
