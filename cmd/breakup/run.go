package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/breakup-etl/internal/config"
	"github.com/couchcryptid/breakup-etl/internal/observability"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] <points.csv>",
		Short: "Runs one batch over a point file and exits",
		Long:  `breakup run --mode route|segment <points.csv>`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := modeFromFlags(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, cfg, observability.NewMetrics())
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.runFile(ctx, args[0], mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d of %d points processed, %d failed, %d groups\n",
				rep.RunID, rep.Processed, rep.Points, rep.Failed, len(rep.Rollup))
			return nil
		},
	}
	addModeFlags(cmd)
	return cmd
}
