package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"daybrief/internal/scheduler"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run briefs on the configured cron schedule",
		Long: `Run in the foreground and generate a brief for every configured user
on each cron firing. A file lock in the data directory prevents two
schedulers from running against the same stores.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logPath := filepath.Join(cfg.Paths.LogDir, "daybrief.log")

			rt, err := ctx.newRuntime("stderr", logPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			lock := flock.New(filepath.Join(cfg.Paths.DataDir, "scheduler.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire scheduler lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another daybrief scheduler is already running")
			}
			defer lock.Unlock()

			service := scheduler.NewService(rt.cfg, rt.orchestrator, rt.memory, rt.logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if runNow {
				service.RunOnce(runCtx)
			}

			if err := service.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduler running (%s). Press Ctrl+C to stop.\n",
				rt.cfg.Scheduler.CronExpr)

			<-runCtx.Done()
			service.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "Generate once immediately before scheduling")

	return cmd
}
