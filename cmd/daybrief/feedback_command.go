package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"daybrief/internal/brief"
)

func newFeedbackCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <item-ref> <action>",
		Short: "Record a reaction to a brief item",
		Long: `Record a reaction to an item from a generated brief. Actions:
save, thumb_up, open, thumb_down, dismiss, less_like_this.
Feedback steers ranking weights and trains the per-user scoring model.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			event := brief.FeedbackEvent{
				UserID:    ctx.userID(),
				ItemRef:   args[0],
				Action:    brief.FeedbackAction(args[1]),
				CreatedAt: time.Now().UTC(),
			}
			if err := rt.orchestrator.RecordFeedback(cmd.Context(), event); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %s\n", event.Action, event.ItemRef)
			return nil
		},
	}
	return cmd
}
