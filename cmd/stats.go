package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newStatsCmd creates the 'stats' subcommand: recompute and print aggregate
// catalog counts.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Recompute and print catalog statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := appInstance.Store().WriteStats()
			if err != nil {
				return fmt.Errorf("write database stats: %w", err)
			}
			payload, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal stats: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	}
}
