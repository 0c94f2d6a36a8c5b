package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAILLM sends the prompt as a single user message to an OpenAI-compatible chat endpoint
type OpenAILLM struct {
	Client      *openai.Client
	Model       string
	Temperature float32
	MaxTokens   int
}

// NewOpenAILLM creates a chat client for baseURL; an empty baseURL uses api.openai.com
func NewOpenAILLM(baseURL, apiKey, model string) *OpenAILLM {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAILLM{
		Client:      openai.NewClientWithConfig(cfg),
		Model:       model,
		Temperature: 0.1,
		MaxTokens:   1024,
	}
}

// ModelName returns the language model identifier
func (o *OpenAILLM) ModelName() string {
	return o.Model
}

// Generate submits a fully rendered prompt and returns the raw completion
func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("failed to generate response: no choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// Ping lists models to check the endpoint and credentials
func (o *OpenAILLM) Ping(ctx context.Context) error {
	if _, err := o.Client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai endpoint unreachable: %w", err)
	}
	return nil
}
