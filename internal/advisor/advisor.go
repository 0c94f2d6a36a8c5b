// Package advisor renders the setup-engineer prompt and asks the language
// model for setup adjustments.
package advisor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"racing-setup-rag/internal/llm"
)

// Result is the model's answer. Violations is only populated when
// validation is enabled.
type Result struct {
	Answer     string
	Violations []string
	Attempts   int
}

// Advisor submits prompts to a Generator.
// With ValidateRetries = 0 the model output is returned unmodified and never checked.
type Advisor struct {
	LLM             llm.Generator
	ValidateRetries int
	Logger          *zap.Logger
}

// New creates an advisor
func New(gen llm.Generator, validateRetries int, logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{LLM: gen, ValidateRetries: validateRetries, Logger: logger}
}

// Generate renders the prompt from context, telemetry and question and returns the model output
func (a *Advisor) Generate(ctx context.Context, data PromptData) (*Result, error) {
	prompt, err := RenderPrompt(data)
	if err != nil {
		return nil, err
	}

	answer, err := a.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate advice: %w", err)
	}
	result := &Result{Answer: answer, Attempts: 1}
	if a.ValidateRetries <= 0 {
		return result, nil
	}

	result.Violations = Validate(answer)
	for retry := 1; retry <= a.ValidateRetries && len(result.Violations) > 0; retry++ {
		a.Logger.Info("advice broke output rules, re-prompting",
			zap.Int("attempt", result.Attempts),
			zap.Strings("violations", result.Violations))

		answer, err := a.LLM.Generate(ctx, correctionPrompt(prompt, result.Answer, result.Violations))
		if err != nil {
			return nil, fmt.Errorf("failed to generate advice: %w", err)
		}
		result.Answer = answer
		result.Attempts++
		result.Violations = Validate(answer)
	}

	if len(result.Violations) > 0 {
		a.Logger.Warn("returning advice that still breaks output rules",
			zap.Int("attempts", result.Attempts),
			zap.Strings("violations", result.Violations))
	}
	return result, nil
}
