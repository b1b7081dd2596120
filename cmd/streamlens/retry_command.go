package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRetryFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry-failed",
		Short: "Re-attempt only the titles a previous run failed to resolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			report, err := p.RetryFailed(cmd.Context())
			if err != nil {
				return err
			}
			if report.Resolved == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No failed titles recorded; nothing to retry.")
			}
			writeRunSummary(cmd.OutOrStdout(), "Retry run", report)
			return nil
		},
	}
}
