package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"charabase/internal/catalog"
	"charabase/internal/crawlqueue"
)

// newCrawlCmd creates the 'crawl' subcommand: discover popular works on the
// configured sources and drain the per-type queues.
func newCrawlCmd() *cobra.Command {
	var (
		typeFlag     string
		maxWorks     int
		skipDiscover bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Discover popular works and import them with their characters",
		Long: `Runs one crawl cycle per work type: pull popular listings from the
source, queue every work not yet imported, then drain the queue up to
the configured per-run budget. State is persisted after every item, so
an interrupted crawl resumes where it stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, typeFlag, maxWorks, skipDiscover)
		},
	}

	cmd.Flags().StringVar(&typeFlag, "type", "", "restrict to one work type (anime, manga, game)")
	cmd.Flags().IntVar(&maxWorks, "max-works", 0, "override crawl.max_works_per_run for this invocation")
	cmd.Flags().BoolVar(&skipDiscover, "skip-discovery", false, "drain the existing queue without discovering new works")
	return cmd
}

func runCrawl(cmd *cobra.Command, typeFlag string, maxWorks int, skipDiscover bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workTypes, err := selectTypes(typeFlag)
	if err != nil {
		return err
	}

	cfg := appInstance.Config()
	if maxWorks <= 0 {
		maxWorks = cfg.Crawl.MaxWorksPerRun
	}
	logger := appInstance.Logger()

	for _, workType := range workTypes {
		if ctx.Err() != nil {
			break
		}
		client, err := appInstance.Client(workType)
		if err != nil {
			return err
		}
		queue, err := crawlqueue.New(workType, client, appInstance.Store(), appInstance.WorkCache(), crawlqueue.Options{
			DiscoveryMaxPages:   cfg.Crawl.DiscoveryMaxPages,
			DelayBetweenImports: cfg.Crawl.DelayBetweenImports(),
			CharacterPageLimit:  cfg.Crawl.CharacterPageLimit,
		}, logger)
		if err != nil {
			return fmt.Errorf("open %s crawl queue: %w", workType, err)
		}

		if !skipDiscover {
			if _, err := queue.Discover(ctx); err != nil {
				logger.Warn("discovery failed, draining existing queue",
					zap.String("type", string(workType)),
					zap.Error(err),
				)
			}
		}

		report, err := queue.Crawl(ctx, maxWorks)
		if err != nil {
			return fmt.Errorf("crawl %s: %w", workType, err)
		}
		logger.Info("crawl cycle finished",
			zap.String("type", string(workType)),
			zap.String("run_id", report.RunID),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Int("skipped", report.Skipped),
		)
	}

	if _, err := appInstance.Store().WriteStats(); err != nil {
		return fmt.Errorf("write database stats: %w", err)
	}
	return nil
}

func selectTypes(typeFlag string) ([]catalog.WorkType, error) {
	if typeFlag == "" {
		return catalog.WorkTypes(), nil
	}
	workType, ok := catalog.ParseWorkType(typeFlag)
	if !ok {
		return nil, fmt.Errorf("unknown work type %q (want anime, manga, or game)", typeFlag)
	}
	return []catalog.WorkType{workType}, nil
}
