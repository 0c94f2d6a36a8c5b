// Package app owns the process-wide state of a query process: the index
// handle and the model clients. New must complete before any request is
// served and Close releases everything New opened.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"racing-setup-rag/internal/advisor"
	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/database"
	"racing-setup-rag/internal/embedding"
	"racing-setup-rag/internal/llm"
	"racing-setup-rag/internal/retriever"
	"racing-setup-rag/internal/service"
	"racing-setup-rag/internal/telemetry"
)

// App is the initialized query side
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     database.Store
	Embedder  embedding.Embedder
	LLM       llm.Generator
	Assistant *service.Assistant
}

// New opens the index, refuses an index built with a different embedding
// model, and wires the request facade
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := database.Open(ctx, cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	embedder, err := embedding.New(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	meta, err := store.Meta(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := database.CheckModel(meta, embedder.ModelName()); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w; rebuild the index or set models.embedding", err)
	}
	if meta == nil {
		logger.Warn("index is empty, answers will have no setup documentation",
			zap.String("backend", cfg.Index.Backend),
			zap.String("dir", cfg.Index.Dir))
	} else {
		logger.Info("index opened",
			zap.String("backend", cfg.Index.Backend),
			zap.Int("documents", meta.DocumentCount),
			zap.String("embedding_model", meta.EmbeddingModel),
			zap.Time("built_at", meta.BuiltAt))
	}

	gen, err := llm.New(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	assistant := service.NewAssistant(
		telemetry.NewSummarizer(cfg.Telemetry.Keywords),
		retriever.New(embedder, store, cfg.Retrieval.K, logger),
		advisor.New(gen, cfg.Generation.ValidateRetries, logger),
		logger,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Embedder:  embedder,
		LLM:       gen,
		Assistant: assistant,
	}, nil
}

// Health reports the index state and whether the inference service answers
type Health struct {
	Status         string              `json:"status"`
	Provider       string              `json:"provider"`
	Model          string              `json:"model"`
	EmbeddingModel string              `json:"embedding_model"`
	Index          *database.IndexMeta `json:"index"`
	Errors         map[string]string   `json:"errors,omitempty"`
}

// Health checks the index and the language model endpoint
func (a *App) Health(ctx context.Context) Health {
	h := Health{
		Status:         "ok",
		Provider:       a.Config.Provider,
		Model:          a.LLM.ModelName(),
		EmbeddingModel: a.Embedder.ModelName(),
	}
	fail := func(component string, err error) {
		if h.Errors == nil {
			h.Errors = make(map[string]string)
		}
		h.Errors[component] = err.Error()
		h.Status = "degraded"
	}

	if err := a.Store.Ping(ctx); err != nil {
		fail("index", err)
	} else if meta, err := a.Store.Meta(ctx); err != nil {
		fail("index", err)
	} else {
		h.Index = meta
	}

	if err := a.LLM.Ping(ctx); err != nil {
		fail("llm", err)
	}
	return h
}

// Close releases the index handle
func (a *App) Close() error {
	return a.Store.Close()
}
