// Package database persists the setup-guide vector index and answers
// nearest-neighbour queries against it.
package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/models"
)

var (
	// ErrEmbeddingModelMismatch means the index was built with another embedding model
	ErrEmbeddingModelMismatch = errors.New("embedding model does not match the index")
	// ErrDimensionMismatch means a vector's length differs from the index dimension
	ErrDimensionMismatch = errors.New("embedding dimension does not match the index")
)

// IndexMeta describes how an index was built
type IndexMeta struct {
	EmbeddingModel string    `json:"embedding_model"`
	Dimension      int       `json:"dimension"`
	DocumentCount  int       `json:"document_count"`
	BuiltAt        time.Time `json:"built_at"`
}

// Store is a persistent vector index.
// Query methods are safe for concurrent use; Rebuild replaces the whole
// index atomically.
type Store interface {
	// Rebuild replaces the index contents with docs, which must all carry embeddings
	Rebuild(ctx context.Context, meta IndexMeta, docs []models.Document) error
	// QuerySimilar returns up to limit documents ordered from most to least similar.
	// An index that was never built yields no documents and no error.
	QuerySimilar(ctx context.Context, embedding []float32, limit int) ([]models.Document, error)
	// Meta returns nil when the index was never built
	Meta(ctx context.Context) (*IndexMeta, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected in cfg
func Open(ctx context.Context, cfg config.IndexConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Dir)
	case "postgres":
		db, err := NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.Initialize(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// CheckModel verifies that queries embedded with model can be compared
// against an index described by meta. A nil meta (empty index) always passes.
func CheckModel(meta *IndexMeta, model string) error {
	if meta == nil || meta.EmbeddingModel == model {
		return nil
	}
	return fmt.Errorf("%w: index built with %q, configured %q", ErrEmbeddingModelMismatch, meta.EmbeddingModel, model)
}

// validateDocuments makes sure every document has an embedding of the meta dimension
func validateDocuments(meta IndexMeta, docs []models.Document) error {
	if meta.Dimension <= 0 {
		return fmt.Errorf("invalid index dimension %d", meta.Dimension)
	}
	for _, d := range docs {
		if len(d.Embedding) != meta.Dimension {
			return fmt.Errorf("%w: document %s has %d values, want %d",
				ErrDimensionMismatch, d.Source, len(d.Embedding), meta.Dimension)
		}
	}
	return nil
}

const (
	metaEmbeddingModel = "embedding_model"
	metaDimension      = "dimension"
	metaDocumentCount  = "document_count"
	metaBuiltAt        = "built_at"
)

func metaToRows(meta IndexMeta) map[string]string {
	return map[string]string{
		metaEmbeddingModel: meta.EmbeddingModel,
		metaDimension:      strconv.Itoa(meta.Dimension),
		metaDocumentCount:  strconv.Itoa(meta.DocumentCount),
		metaBuiltAt:        meta.BuiltAt.UTC().Format(time.RFC3339),
	}
}

func metaFromRows(rows map[string]string) (*IndexMeta, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	meta := &IndexMeta{EmbeddingModel: rows[metaEmbeddingModel]}
	var err error
	if meta.Dimension, err = strconv.Atoi(rows[metaDimension]); err != nil {
		return nil, fmt.Errorf("corrupt index metadata %s: %w", metaDimension, err)
	}
	if meta.DocumentCount, err = strconv.Atoi(rows[metaDocumentCount]); err != nil {
		return nil, fmt.Errorf("corrupt index metadata %s: %w", metaDocumentCount, err)
	}
	if meta.BuiltAt, err = time.Parse(time.RFC3339, rows[metaBuiltAt]); err != nil {
		return nil, fmt.Errorf("corrupt index metadata %s: %w", metaBuiltAt, err)
	}
	return meta, nil
}
