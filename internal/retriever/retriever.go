// Package retriever finds the setup-guide documents most relevant to a
// question and assembles them into a prompt context block.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"racing-setup-rag/internal/database"
	"racing-setup-rag/internal/embedding"
	"racing-setup-rag/internal/models"
)

// DefaultK is the number of documents retrieved per question
const DefaultK = 3

// DocumentSeparator joins documents in the context block
const DocumentSeparator = "\n\n---\n\n"

// Retriever embeds questions with the index's embedding model and queries the store
type Retriever struct {
	Embedder embedding.Embedder
	Store    database.Store
	K        int
	Logger   *zap.Logger
}

// New creates a retriever; k < 1 falls back to DefaultK
func New(e embedding.Embedder, s database.Store, k int, logger *zap.Logger) *Retriever {
	if k < 1 {
		k = DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{Embedder: e, Store: s, K: k, Logger: logger}
}

// Retrieve returns up to K documents ordered from most to least similar to query.
// An empty index yields an empty slice without contacting the embedder.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.Document, error) {
	meta, err := r.Store.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index metadata: %w", err)
	}
	if meta == nil || meta.DocumentCount == 0 {
		r.Logger.Debug("index is empty, nothing to retrieve")
		return []models.Document{}, nil
	}

	vec, err := r.Embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	docs, err := r.Store.QuerySimilar(ctx, vec, r.K)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	if docs == nil {
		docs = []models.Document{}
	}

	r.Logger.Debug("retrieved documents", zap.Int("count", len(docs)), zap.Int("k", r.K))
	return docs, nil
}

// FormatDocs joins document contents in order; no documents yield ""
func FormatDocs(docs []models.Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, DocumentSeparator)
}
