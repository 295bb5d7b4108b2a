// Package cmd defines the CLI commands for the charabase executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"charabase/internal/app"
	"charabase/internal/config"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newRootCmd creates the root command. The application container is built
// once in PersistentPreRunE and handed to subcommands through the context.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charabase",
		Short: "A file-backed catalog of anime, manga, and game characters.",
		Long: `charabase crawls external catalogs (AniList, Jikan, RAWG), imports
works and their characters into a JSON file store, and ranks every
character against the whole catalog.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(*app.App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus CHARABASE_* env)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newRankCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatsCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
