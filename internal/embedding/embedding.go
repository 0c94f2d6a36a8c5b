// Package embedding converts setup-guide text and driver questions into vectors.
package embedding

import (
	"context"
	"fmt"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/models"
)

// Embedder turns text into a vector. The same model must be used for
// building the index and for querying it.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, docs []models.Document, progressFunc func(processed, total int)) ([]models.Document, error)
	ModelName() string
}

// New builds the embedder selected by cfg.Provider
func New(cfg *config.Config) (Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		e, err := NewOllamaEmbedder(cfg.Ollama.Host, cfg.Models.Embedding)
		if err != nil {
			return nil, err
		}
		e.MaxConcurrent = cfg.Documents.MaxConcurrent
		return e, nil
	case "openai":
		e := NewOpenAIEmbedder(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Models.Embedding)
		e.MaxConcurrent = cfg.Documents.MaxConcurrent
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
