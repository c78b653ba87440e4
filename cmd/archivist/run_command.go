package main

import (
	"github.com/spf13/cobra"

	"archivist/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the archive daemon in the foreground",
		Long: `Run the archive daemon in the foreground until interrupted.

The daemon scans every tracked account, downloads fully scanned content into
the primary archive, and links finished files into every other archive that
tracks the same account. Only one daemon may run per state directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development logging")
	return cmd
}
