package main

import (
	"github.com/spf13/cobra"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Regenerate the datasets from the checkpoint without catalog calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			report, err := p.Prepare(cmd.Context())
			if err != nil {
				return err
			}
			writeRunSummary(cmd.OutOrStdout(), "Prepare run", report)
			return nil
		},
	}
}
