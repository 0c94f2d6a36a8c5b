package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/errgroup"

	"racing-setup-rag/internal/models"
	"racing-setup-rag/internal/ollama"
)

// ErrEmptyEmbedding is returned when the model produces no vector for the input,
// as Ollama does for empty text. It is not retried.
var ErrEmptyEmbedding = errors.New("model returned an empty embedding")

// OllamaEmbedder generates embeddings using Ollama API
type OllamaEmbedder struct {
	Client        *api.Client
	Model         string
	MaxRetries    int
	RetryDelay    time.Duration
	Timeout       time.Duration
	MaxConcurrent int
}

// NewOllamaEmbedder creates a new Ollama embedder
func NewOllamaEmbedder(host string, model string) (*OllamaEmbedder, error) {
	client, err := ollama.NewClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaEmbedder{
		Client:        client,
		Model:         model,
		MaxRetries:    3,
		RetryDelay:    time.Second,
		Timeout:       time.Second * 30,
		MaxConcurrent: 3,
	}, nil
}

// ModelName returns the embedding model identifier
func (e *OllamaEmbedder) ModelName() string {
	return e.Model
}

// EmbedText generates an embedding for a text
func (e *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	var err error

	for retries := 0; retries <= e.MaxRetries; retries++ {
		if retries > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries) * e.RetryDelay):
			}
		}

		embedding, err = e.createEmbedding(ctx, text)
		if err == nil {
			return embedding, nil
		}
		if errors.Is(err, ErrEmptyEmbedding) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to create embedding after %d retries: %w", e.MaxRetries, err)
}

// createEmbedding is a helper function to create a single embedding
func (e *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float32, error) {
	req := api.EmbedRequest{
		Model: e.Model,
		Input: text,
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	resp, err := e.Client.Embed(ctxWithTimeout, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w (model %s)", ErrEmptyEmbedding, e.Model)
	}

	return resp.Embeddings[0], nil
}

// EmbedDocuments generates embeddings for documents in parallel, reporting progress.
// The input slice is updated in place and returned.
func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, docs []models.Document,
	progressFunc func(processed, total int)) ([]models.Document, error) {
	return embedConcurrently(ctx, e, e.MaxConcurrent, docs, progressFunc)
}

// embedConcurrently fans EmbedText out over a bounded number of goroutines
func embedConcurrently(ctx context.Context, e Embedder, maxConcurrent int, docs []models.Document,
	progressFunc func(processed, total int)) ([]models.Document, error) {

	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	var mu sync.Mutex
	processed := 0
	total := len(docs)

	for i := range docs {
		g.Go(func() error {
			embedding, err := e.EmbedText(gctx, docs[i].Content)
			if err != nil {
				return fmt.Errorf("failed to embed %s (chunk %d): %w", docs[i].Source, docs[i].ChunkIndex, err)
			}

			mu.Lock()
			defer mu.Unlock()
			docs[i].Embedding = embedding
			processed++
			if progressFunc != nil {
				progressFunc(processed, total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
