package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"

	"racing-setup-rag/internal/ollama"
)

// OllamaLLM handles interactions with the Ollama LLM API
type OllamaLLM struct {
	Client      *api.Client
	Model       string
	Temperature float64
	NumPredict  int
}

// NewOllamaLLM creates a new Ollama LLM client. An empty host uses OLLAMA_HOST.
func NewOllamaLLM(host string, model string) (*OllamaLLM, error) {
	client, err := ollama.NewClient(host)
	if err != nil {
		return nil, err
	}

	return &OllamaLLM{
		Client:      client,
		Model:       model,
		Temperature: 0.1,
		NumPredict:  1024,
	}, nil
}

// ModelName returns the language model identifier
func (o *OllamaLLM) ModelName() string {
	return o.Model
}

// Generate submits a fully rendered prompt and returns the raw completion
func (o *OllamaLLM) Generate(ctx context.Context, prompt string) (string, error) {
	req := api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Options: map[string]interface{}{
			"temperature": o.Temperature,
			"num_predict": o.NumPredict,
		},
	}

	var responseBuilder strings.Builder

	err := o.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	return responseBuilder.String(), nil
}

// Ping checks that the Ollama server is reachable
func (o *OllamaLLM) Ping(ctx context.Context) error {
	if err := o.Client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	return nil
}
