package main

import (
	"github.com/spf13/cobra"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Resolve every title in the viewing history and write the enriched datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			report, err := p.Enrich(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			writeRunSummary(cmd.OutOrStdout(), "Enrichment run", report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-resolve every title instead of reusing the checkpoint")
	return cmd
}
