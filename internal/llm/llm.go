// Package llm submits prompts to a language model completion interface.
package llm

import (
	"context"
	"fmt"

	"racing-setup-rag/internal/config"
)

// Generator is a text completion backend
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
	Ping(ctx context.Context) error
}

// New builds the generator selected by cfg.Provider
func New(cfg *config.Config) (Generator, error) {
	switch cfg.Provider {
	case "ollama":
		g, err := NewOllamaLLM(cfg.Ollama.Host, cfg.Models.LLM)
		if err != nil {
			return nil, err
		}
		g.Temperature = cfg.Generation.Temperature
		g.NumPredict = cfg.Generation.NumPredict
		return g, nil
	case "openai":
		g := NewOpenAILLM(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Models.LLM)
		g.Temperature = float32(cfg.Generation.Temperature)
		g.MaxTokens = cfg.Generation.NumPredict
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
