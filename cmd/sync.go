package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCmd() *cobra.Command {
	var dealerID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Runs one dealer sync",
		Long: `Scrapes the named dealer's inventory source, reconciles the results
against the vehicle store, and records the outcome on the dealer record.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			summary := appInstance.Reconciler().SyncDealer(cmd.Context(), dealerID)
			appInstance.Logger().Info("sync finished",
				zap.String("dealer_id", summary.DealerID),
				zap.Bool("success", summary.Success),
				zap.Int("added", summary.Stats.Added),
				zap.Int("updated", summary.Stats.Updated),
				zap.Int("marked_sold", summary.Stats.MarkedSold),
				zap.Duration("duration", summary.Duration),
			)
			if !summary.Success {
				return fmt.Errorf("sync dealer %s: %s", dealerID, summary.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dealerID, "dealer", "", "dealer ID to sync")
	_ = cmd.MarkFlagRequired("dealer")
	return cmd
}
