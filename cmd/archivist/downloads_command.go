package main

import (
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"archivist/internal/catalog"
	"archivist/internal/config"
	"archivist/internal/logging"
	"archivist/internal/textutil"
)

func newDownloadsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "downloads",
		Short: "List recorded downloads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				downloads, err := store.ListDownloads(cmd.Context())
				if err != nil {
					return err
				}
				slices.Reverse(downloads)
				if limit > 0 && len(downloads) > limit {
					downloads = downloads[:limit]
				}
				if ctx.JSONMode() {
					if downloads == nil {
						downloads = []catalog.Download{}
					}
					return writeJSON(cmd, downloads)
				}
				out := cmd.OutOrStdout()
				if len(downloads) == 0 {
					fmt.Fprintln(out, "No downloads recorded")
					return nil
				}
				var total int64
				rows := make([][]string, 0, len(downloads))
				for _, d := range downloads {
					total += d.SizeBytes
					rows = append(rows, []string{
						textutil.ServiceLabel(d.Service),
						d.ContentID,
						d.Format,
						logging.FormatBytes(d.SizeBytes),
						humanize.Time(d.CreatedAt),
						d.Path,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Service", "Content", "Format", "Size", "Added", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
					"", fmt.Sprintf("%d shown", len(downloads)), "", logging.FormatBytes(total),
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Show at most this many downloads (0 for all)")
	return cmd
}
