package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove aged novelty and feedback records",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			maxAge := days
			if maxAge <= 0 {
				maxAge = rt.cfg.Workflow.MemoryMaxAgeDays
			}

			removed, err := rt.memory.Prune(cmd.Context(), ctx.userID(), maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d records older than %d days\n", removed, maxAge)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Age cutoff in days (default: configured memory_max_age_days)")

	return cmd
}
