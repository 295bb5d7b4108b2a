package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"charabase/internal/cache"
	"charabase/internal/catalog"
	"charabase/internal/source"
)

// newImportCmd creates the 'import' subcommand for pulling a single work and
// its characters outside the crawl cycle.
func newImportCmd() *cobra.Command {
	var (
		sourceID   string
		title      string
		sourceName string
	)

	cmd := &cobra.Command{
		Use:   "import <type>",
		Short: "Import one work and its characters by source id or title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], sourceID, title, sourceName)
		},
	}

	cmd.Flags().StringVar(&sourceID, "id", "", "source-side id of the work")
	cmd.Flags().StringVar(&title, "title", "", "title to search for when no id is known")
	cmd.Flags().StringVar(&sourceName, "source", "", "source to import from (anilist, jikan, rawg; default is the type's primary)")
	return cmd
}

func runImport(cmd *cobra.Command, typeArg, sourceID, title, sourceName string) error {
	if sourceID == "" && title == "" {
		return fmt.Errorf("either --id or --title is required")
	}
	workType, ok := catalog.ParseWorkType(typeArg)
	if !ok {
		return fmt.Errorf("unknown work type %q (want anime, manga, or game)", typeArg)
	}

	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := appInstance.ClientNamed(sourceName, workType)
	if err != nil {
		return err
	}
	logger := appInstance.Logger()

	work, err := client.SearchMedia(ctx, catalog.SearchCriteria{
		SourceID: sourceID,
		Title:    title,
		Type:     workType,
	})
	if err != nil {
		return fmt.Errorf("fetch work from %s: %w", client.Name(), err)
	}

	catalogStore := appInstance.Store()
	stored, err := catalogStore.UpsertWork(workType, work.ID, work)
	if err != nil {
		return fmt.Errorf("upsert work %s: %w", work.ID, err)
	}

	characters, err := client.CollectCharacters(ctx, stored.SourceID, source.CollectOptions{
		WorkID:   stored.ID,
		MaxPages: appInstance.Config().Crawl.CharacterPageLimit,
	})
	if err != nil {
		return fmt.Errorf("collect characters for %s: %w", stored.ID, err)
	}
	result, err := catalogStore.UpsertCharacters(workType, stored.ID, characters)
	if err != nil {
		return fmt.Errorf("upsert characters for %s: %w", stored.ID, err)
	}

	if err := appInstance.WorkCache().MarkProcessed(stored.SourceID, cache.Entry{
		WorkType: string(workType),
		Title:    stored.Title,
	}); err != nil {
		return fmt.Errorf("mark cache for %s: %w", stored.SourceID, err)
	}
	if _, err := catalogStore.WriteStats(); err != nil {
		return fmt.Errorf("write database stats: %w", err)
	}

	logger.Info("work imported",
		zap.String("type", string(workType)),
		zap.String("work_id", stored.ID),
		zap.String("title", stored.Title),
		zap.String("source", client.Name()),
		zap.Int("characters_added", result.Added),
		zap.Int("characters_total", result.Total),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "imported %s/%s (%d characters)\n", workType, stored.ID, result.Total)
	return nil
}
