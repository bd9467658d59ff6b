package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"daybrief/internal/brief"
	"daybrief/internal/pipeline"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var since time.Duration
	var modulesFlag string
	var topicsFlag string
	var vipsFlag string
	var projectsFlag string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a brief now",
		Long: `Fetch every enabled source, rank what changed since the last run, and
print the resulting brief. Sources that fail are reported in the run
status without aborting the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			var progress pipeline.ProgressFunc
			if !quiet && shouldColorize(os.Stderr) {
				progress = func(stage pipeline.Stage, fraction float64, message string) {
					fmt.Fprintf(os.Stderr, "\r\x1b[K[%3.0f%%] %s", fraction*100, message)
					if stage == pipeline.StageComplete || stage == pipeline.StageError {
						fmt.Fprintln(os.Stderr)
					}
				}
			}

			bundle, err := rt.orchestrator.GenerateBrief(cmd.Context(), pipeline.GenerateRequest{
				UserID: ctx.userID(),
				Prefs: brief.Preferences{
					Topics:   splitCSV(topicsFlag),
					VIPs:     splitCSV(vipsFlag),
					Projects: splitCSV(projectsFlag),
				},
				Since:    time.Now().UTC().Add(-since),
				Modules:  splitCSV(modulesFlag),
				Progress: progress,
			})
			if err != nil {
				return err
			}

			renderBundle(cmd.OutOrStdout(), bundle, shouldColorize(os.Stdout))
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "How far back to look for items")
	cmd.Flags().StringVar(&modulesFlag, "modules", "", "Comma-separated sources to include (default: all enabled)")
	cmd.Flags().StringVar(&topicsFlag, "topics", "", "Comma-separated topics of interest")
	cmd.Flags().StringVar(&vipsFlag, "vips", "", "Comma-separated people whose items rank higher")
	cmd.Flags().StringVar(&projectsFlag, "projects", "", "Comma-separated active project names")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}
