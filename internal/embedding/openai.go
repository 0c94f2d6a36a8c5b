package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"racing-setup-rag/internal/models"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible endpoint
type OpenAIEmbedder struct {
	Client        *openai.Client
	Model         string
	MaxConcurrent int
}

// NewOpenAIEmbedder creates an embedder for baseURL; an empty baseURL uses api.openai.com
func NewOpenAIEmbedder(baseURL, apiKey, model string) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		Client:        openai.NewClientWithConfig(cfg),
		Model:         model,
		MaxConcurrent: 3,
	}
}

// ModelName returns the embedding model identifier
func (e *OpenAIEmbedder) ModelName() string {
	return e.Model
}

// EmbedText generates an embedding for a text
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.Client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no data for model %s", e.Model)
	}
	return resp.Data[0].Embedding, nil
}

// EmbedDocuments generates embeddings for documents in parallel
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, docs []models.Document,
	progressFunc func(processed, total int)) ([]models.Document, error) {
	return embedConcurrently(ctx, e, e.MaxConcurrent, docs, progressFunc)
}
