package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"daybrief/internal/brief"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var briefID string
	var list bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a stored brief",
		Long: `Display the most recent brief for the user, a specific brief by id,
or the list of recent briefs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if list {
				summaries, err := rt.bundles.ListRecent(cmd.Context(), ctx.userID(), limit)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No briefs stored yet.")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, s := range summaries {
					rows = append(rows, []string{
						s.BriefID,
						s.GeneratedAt.Local().Format("2006-01-02 15:04"),
						string(s.Status),
					})
				}
				renderTable(cmd.OutOrStdout(), []string{"Brief", "Generated", "Status"},
					rows, []columnAlignment{alignLeft, alignLeft, alignLeft})
				return nil
			}

			var bundle *brief.Bundle
			if briefID != "" {
				bundle, err = rt.bundles.Load(cmd.Context(), briefID)
			} else {
				bundle, err = rt.bundles.LoadLatest(cmd.Context(), ctx.userID())
			}
			if err != nil {
				return err
			}

			renderBundle(cmd.OutOrStdout(), bundle, shouldColorize(os.Stdout))
			return nil
		},
	}

	cmd.Flags().StringVar(&briefID, "brief", "", "Brief id to display (default: latest)")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List recent briefs instead")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum briefs to list")

	return cmd
}
