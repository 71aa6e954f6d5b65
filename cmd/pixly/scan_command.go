package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pixly/internal/config"
	"pixly/internal/pipeline"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "scan <dir>...",
		Short: "Organize screenshots already present in a folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateAI(); err != nil {
				return err
			}
			logger, err := ctx.commandLogger()
			if err != nil {
				return err
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			processor, err := pipeline.NewFromConfig(cmd.Context(), cfg, st, nil, logger)
			if err != nil {
				return fmt.Errorf("configure pipeline: %w", err)
			}

			summaries := make([]pipeline.ScanSummary, 0, len(args))
			var errs []error
			for _, arg := range args {
				dir, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				summary, err := processor.Scan(cmd.Context(), dir)
				if err != nil {
					errs = append(errs, fmt.Errorf("scan %s: %w", dir, err))
					continue
				}
				summaries = append(summaries, summary)
			}

			if jsonOut {
				if err := writeJSON(cmd, summaries); err != nil {
					return err
				}
				return errors.Join(errs...)
			}
			out := cmd.OutOrStdout()
			for _, s := range summaries {
				fmt.Fprintln(out, countPrinter.Sprintf("%s: %d seen, %d organized, %d skipped, %d failed",
					s.Dir, s.Seen, s.Processed, s.Skipped, s.Failed))
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
