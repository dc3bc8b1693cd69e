package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitchenwise/recipechat/internal/crawl"
	"github.com/kitchenwise/recipechat/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Crawl the configured site into the vector index and graph",
		Long: `Crawls the configured base URL breadth-first, staying on the same
site, and ingests every reachable page: each page is embedded and uploaded
to the vector index, and every recipe page is additionally upserted into
the knowledge graph. Re-running ingest overwrites documents in place.`,
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	container, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	cfg := container.Config()
	logger := container.Logger()

	if err := container.Vectors().EnsureIndex(cmd.Context()); err != nil {
		return fmt.Errorf("ensure vector index: %w", err)
	}

	crawlCfg := crawl.Config{
		BaseURL:           cfg.Crawl.BaseURL,
		MaxPages:          cfg.Crawl.MaxPages,
		UserAgent:         cfg.Crawl.UserAgent,
		NavTimeout:        cfg.Crawl.NavTimeout(),
		DomainQPS:         cfg.Crawl.DomainQPS,
		HeadlessThreshold: cfg.Crawl.HeadlessThreshold,
	}

	fetcher, err := crawl.NewCollyFetcher(crawlCfg, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}
	renderer, err := crawl.NewChromedpRenderer(crawlCfg, logger)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	defer func() {
		if cerr := renderer.Close(cmd.Context()); cerr != nil {
			logger.Warn("failed to close renderer", zap.Error(cerr))
		}
	}()
	detector := crawl.NewHeuristicDetector(cfg.Crawl.HeadlessThreshold)

	engine, err := crawl.NewEngine(crawlCfg, fetcher, renderer, detector, logger)
	if err != nil {
		return fmt.Errorf("init crawl engine: %w", err)
	}

	pipeline := ingest.NewPipeline(
		container.LLM(),
		container.Vectors(),
		container.Graph(),
		cfg.Crawl.RecipePathMarker,
		logger,
	)

	if err := engine.Run(cmd.Context(), pipeline.HandlePage); err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	report, err := pipeline.Flush(cmd.Context())
	if err != nil {
		return fmt.Errorf("flush pipeline: %w", err)
	}

	logger.Info("ingest finished",
		zap.Int("pages_visited", engine.VisitedCount()),
		zap.Int("documents", report.Pages),
		zap.Int("recipes", report.Recipes),
		zap.Int("uploaded", report.Upload.Succeeded),
		zap.Int("upload_failures", report.Upload.Failed),
		zap.Int("graph_errors", report.GraphErrors),
	)
	return nil
}
