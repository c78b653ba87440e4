package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"archivist/internal/archives"
	"archivist/internal/textutil"
)

func newArchivesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List archives and the accounts each one tracks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := archives.New(cfg)

			type pairView struct {
				Archive    string `json:"archive"`
				Root       string `json:"root"`
				Entity     string `json:"entity"`
				Service    string `json:"service"`
				AccountID  string `json:"account_id"`
				Primary    bool   `json:"primary"`
				AccountGap string `json:"account_gap"`
				ContentGap string `json:"content_gap"`
			}
			var views []pairView
			for _, pair := range registry.Pairs("") {
				primary, _ := registry.Primary(pair.Service, pair.AccountID)
				views = append(views, pairView{
					Archive:    pair.Archive.Name,
					Root:       pair.Archive.Root,
					Entity:     pair.Entity,
					Service:    pair.Service,
					AccountID:  pair.AccountID,
					Primary:    primary.Name == pair.Archive.Name,
					AccountGap: formatGap(pair.Archive.AccountGap(pair.Service)),
					ContentGap: formatGap(pair.Archive.ContentGap(pair.Service)),
				})
			}

			if ctx.JSONMode() {
				if views == nil {
					views = []pairView{}
				}
				return writeJSON(cmd, views)
			}
			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No archives track any accounts")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					v.Archive, v.Entity, textutil.ServiceLabel(v.Service), v.AccountID,
					yesNo(v.Primary), v.AccountGap, v.ContentGap,
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Archive", "Entity", "Service", "Account", "Primary", "Account gap", "Content gap"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func formatGap(d time.Duration) string {
	if d <= 0 {
		return "always"
	}
	return formatDuration(d)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
