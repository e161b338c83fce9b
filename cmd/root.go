// Package cmd defines and implements the CLI commands for the inventory-sync
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/api"
	"github.com/autolot/inventory-sync/internal/app"
	"github.com/autolot/inventory-sync/internal/config"
	"github.com/autolot/inventory-sync/internal/reconcile"
	"github.com/autolot/inventory-sync/internal/schedule"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the slice of the service container the commands use. The
// indirection lets tests inject a mock container.
type App interface {
	Close(ctx context.Context)
	Config() config.Config
	Logger() *zap.Logger
	Reconciler() *reconcile.Reconciler
	Scheduler() *schedule.Scheduler
	APIServer() *api.Server
}

// newApp is the application factory, replaceable in tests.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(ctx, cfg)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory-sync",
		Short: "Dealer inventory synchronization service",
		Long: `inventory-sync keeps marketplace vehicle listings in step with dealer
websites. It discovers inventory pages, extracts vehicles, decodes VINs,
rehosts photos, and reconciles the results against the vehicle store.`,

		// Runs after flag parsing and before the subcommand's RunE, so
		// every subcommand finds a fully built container in its context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close(cmd.Context())
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults to environment variables only)")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newScheduleCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
