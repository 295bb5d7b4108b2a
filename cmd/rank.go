package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/ranking"
)

// newRankCmd creates the 'rank' subcommand: regenerate the global character
// ranking and write the snapshot artifact.
func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Recompute every character's score and rarity tier",
		Long: `Scores every character in the catalog against global popularity and
score ranges, consolidates seasons and re-releases into their most
popular edition, buckets scores into rarity tiers, and writes the
ranking snapshot plus per-character scores back to the store.`,
		RunE: runRank,
	}
}

func runRank(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := ranking.New(appInstance.Store(), nil, appInstance.Logger())
	if err != nil {
		return err
	}
	snapshot, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("ranking run: %w", err)
	}

	appInstance.Logger().Info("ranking regenerated",
		zap.Int("characters", snapshot.TotalCharacters),
		zap.Time("generated_at", snapshot.GeneratedAt),
	)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ranked %d characters\n", snapshot.TotalCharacters)
	for _, tier := range []catalog.Tier{
		catalog.TierLegendary, catalog.TierEpic, catalog.TierRare,
		catalog.TierUncommon, catalog.TierCommon,
	} {
		fmt.Fprintf(out, "  %-9s %d\n", tier, snapshot.Distribution[tier])
	}
	return nil
}
