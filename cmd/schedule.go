package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Runs one scheduled sweep over due dealers",
		Long: `Lists dealers whose auto-sync is enabled and whose last sync is older
than their configured frequency, then syncs each one in turn. Intended to be
invoked from cron or Cloud Scheduler.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			summaries, err := appInstance.Scheduler().Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run scheduled sweep: %w", err)
			}

			failed := 0
			for _, s := range summaries {
				if !s.Success {
					failed++
				}
			}
			appInstance.Logger().Info("sweep finished",
				zap.Int("dealers", len(summaries)),
				zap.Int("failed", failed),
			)
			return nil
		},
	}
	return cmd
}
