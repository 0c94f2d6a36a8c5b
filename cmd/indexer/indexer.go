package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/database"
	"racing-setup-rag/internal/embedding"
	"racing-setup-rag/internal/indexer"
	"racing-setup-rag/internal/logging"
	"racing-setup-rag/internal/processor"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexer",
		Short: "Embed the setup guides and rebuild the vector index",
		Long: `indexer loads every .txt and .pdf file under the documents directory,
embeds them and replaces the index the setup assistant reads from.

An empty or missing documents directory leaves the existing index alone.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return run(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultConfigFile+" if present)")
	config.AddFlags(cmd.Flags(), config.IndexFlags...)
	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting index build",
		zap.String("docs", cfg.Documents.Dir),
		zap.String("backend", cfg.Index.Backend),
		zap.String("embedding_model", cfg.Models.Embedding),
		zap.Int("max_concurrent", cfg.Documents.MaxConcurrent))

	store, err := database.Open(ctx, cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := embedding.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	p := processor.NewDocumentProcessor(cfg.Documents.ChunkSize, cfg.Documents.ChunkOverlap)
	report, err := indexer.New(p, embedder, store, logger).Build(ctx, cfg.Documents.Dir)
	if errors.Is(err, indexer.ErrNoDocuments) {
		logger.Warn("no documents found in " + cfg.Documents.Dir + "; existing index left unchanged")
		return nil
	}
	if err != nil {
		return err
	}

	logDocumentStatistics(logger, report)
	return nil
}

// logDocumentStatistics prints what went into the index
func logDocumentStatistics(logger *zap.Logger, report *indexer.BuildReport) {
	logger.Info("document statistics",
		zap.Int("total", report.Documents),
		zap.Int("files", report.Sources),
		zap.String("average_length", fmt.Sprintf("%.1f characters", report.AverageLength)))

	sources := make([]string, 0, len(report.PerSource))
	for source := range report.PerSource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		logger.Info("indexed file", zap.String("source", source), zap.Int("documents", report.PerSource[source]))
	}
}
