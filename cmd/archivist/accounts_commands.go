package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/textutil"
)

func newAccountsCommand(ctx *commandContext) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect tracked accounts and change their download status",
	}
	accountsCmd.AddCommand(newAccountsListCommand(ctx))
	accountsCmd.AddCommand(newAccountsSetStatusCommand(ctx))
	return accountsCmd
}

func newAccountsListCommand(ctx *commandContext) *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				accounts, err := store.ListAccounts(cmd.Context(), strings.TrimSpace(service))
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if accounts == nil {
						accounts = []catalog.Account{}
					}
					return writeJSON(cmd, accounts)
				}
				out := cmd.OutOrStdout()
				if len(accounts) == 0 {
					fmt.Fprintln(out, "No accounts in the catalog")
					return nil
				}
				rows := make([][]string, 0, len(accounts))
				for _, account := range accounts {
					scanned := "never"
					if !account.ScanTime.IsZero() {
						scanned = humanize.Time(account.ScanTime)
					}
					depth := string(account.Depth)
					if depth == "" {
						depth = "-"
					}
					rows = append(rows, []string{
						textutil.ServiceLabel(account.Service),
						account.ExternalID,
						account.Name,
						string(account.Status),
						depth,
						scanned,
						account.ErrorKind,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Service", "Account", "Name", "Status", "Depth", "Scanned", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "Only list accounts of this service")
	return cmd
}

func newAccountsSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <service> <account-id> <accepted|rejected|queued>",
		Short: "Change whether an account's content is downloaded",
		Long: `Change an account's download status.

Only content of accepted accounts is downloaded. Rejected and queued accounts
are still scanned, so accepting one later starts downloads without a rescan.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := catalog.AccountStatus(strings.ToLower(strings.TrimSpace(args[2])))
			if !status.Valid() {
				return fmt.Errorf("unknown status %q (use accepted, rejected, or queued)", args[2])
			}
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				if err := store.SetAccountStatus(cmd.Context(), args[0], args[1], status); err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]string{
						"service":    args[0],
						"account_id": args[1],
						"status":     string(status),
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s account %s is now %s\n", textutil.ServiceLabel(args[0]), args[1], status)
				return nil
			})
		},
	}
}
