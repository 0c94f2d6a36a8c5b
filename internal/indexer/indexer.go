// Package indexer builds the persisted setup-guide index: load, embed, store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"racing-setup-rag/internal/database"
	"racing-setup-rag/internal/embedding"
	"racing-setup-rag/internal/metrics"
	"racing-setup-rag/internal/models"
	"racing-setup-rag/internal/processor"
)

// ErrNoDocuments is returned when the documents directory holds nothing to index.
// The existing index is left untouched.
var ErrNoDocuments = errors.New("no documents found")

// BuildReport summarizes one index build
type BuildReport struct {
	Sources        int
	Documents      int
	PerSource      map[string]int
	AverageLength  float64
	Dimension      int
	EmbeddingModel string
	LoadDuration   time.Duration
	EmbedDuration  time.Duration
	StoreDuration  time.Duration
}

// Total returns the wall time of the whole build
func (r BuildReport) Total() time.Duration {
	return r.LoadDuration + r.EmbedDuration + r.StoreDuration
}

// Indexer wires the loader, the embedder and the store together
type Indexer struct {
	Processor *processor.DocumentProcessor
	Embedder  embedding.Embedder
	Store     database.Store
	Logger    *zap.Logger
}

// New creates an indexer; a nil logger disables logging
func New(p *processor.DocumentProcessor, e embedding.Embedder, s database.Store, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{Processor: p, Embedder: e, Store: s, Logger: logger}
}

// Build replaces the index with the embedded contents of dir
func (ix *Indexer) Build(ctx context.Context, dir string) (*BuildReport, error) {
	report := &BuildReport{EmbeddingModel: ix.Embedder.ModelName()}

	start := time.Now()
	docs, err := ix.Processor.LoadDocuments(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	report.LoadDuration = time.Since(start)
	report.Documents = len(docs)
	report.PerSource, report.AverageLength = documentStats(docs)
	report.Sources = len(report.PerSource)
	ix.Logger.Info("documents loaded",
		zap.String("dir", dir),
		zap.Int("files", report.Sources),
		zap.Int("documents", report.Documents),
		zap.Duration("took", report.LoadDuration))

	embeddingStart := time.Now()
	progressFunc := func(processed, total int) {
		elapsedTime := time.Since(embeddingStart)
		estimatedTotal := elapsedTime * time.Duration(total) / time.Duration(processed)
		estimatedRemaining := estimatedTotal - elapsedTime

		ix.Logger.Info("embedding progress",
			zap.Int("processed", processed),
			zap.Int("total", total),
			zap.String("percent", fmt.Sprintf("%.1f%%", float64(processed)/float64(total)*100)),
			zap.Duration("remaining", estimatedRemaining.Round(time.Second)))
	}

	embedded, err := ix.Embedder.EmbedDocuments(ctx, docs, progressFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	report.EmbedDuration = time.Since(embeddingStart)
	report.Dimension = len(embedded[0].Embedding)

	storeStart := time.Now()
	meta := database.IndexMeta{
		EmbeddingModel: report.EmbeddingModel,
		Dimension:      report.Dimension,
		DocumentCount:  len(embedded),
		BuiltAt:        time.Now().UTC().Truncate(time.Second),
	}
	if err := ix.Store.Rebuild(ctx, meta, embedded); err != nil {
		return nil, fmt.Errorf("failed to store index: %w", err)
	}
	report.StoreDuration = time.Since(storeStart)
	metrics.IndexDocumentsBuilt.Add(float64(len(embedded)))

	ix.Logger.Info("index built",
		zap.Int("documents", report.Documents),
		zap.Int("dimension", report.Dimension),
		zap.String("embedding_model", report.EmbeddingModel),
		zap.Duration("embedding", report.EmbedDuration),
		zap.Duration("storage", report.StoreDuration),
		zap.Duration("total", report.Total()))

	return report, nil
}

// documentStats counts documents per source and their mean content length
func documentStats(docs []models.Document) (map[string]int, float64) {
	perSource := make(map[string]int)
	var totalLength int
	for _, d := range docs {
		perSource[d.Source]++
		totalLength += len(d.Content)
	}
	if len(docs) == 0 {
		return perSource, 0
	}
	return perSource, float64(totalLength) / float64(len(docs))
}
