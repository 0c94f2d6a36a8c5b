// Package service is the request facade: one driver question in, one piece of setup advice out.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"racing-setup-rag/internal/advisor"
	"racing-setup-rag/internal/metrics"
	"racing-setup-rag/internal/models"
	"racing-setup-rag/internal/retriever"
	"racing-setup-rag/internal/telemetry"
)

// TelemetrySummarizer reduces a telemetry file to prompt text
type TelemetrySummarizer interface {
	Summarize(path string) telemetry.Result
}

// DocumentRetriever finds setup-guide documents relevant to a question
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string) ([]models.Document, error)
}

// AdviceGenerator turns the assembled prompt inputs into advice text
type AdviceGenerator interface {
	Generate(ctx context.Context, data advisor.PromptData) (*advisor.Result, error)
}

// Assistant runs the advice pipeline. It holds no per-request state and is
// safe for concurrent use when its collaborators are.
type Assistant struct {
	Telemetry TelemetrySummarizer
	Retriever DocumentRetriever
	Advisor   AdviceGenerator
	Logger    *zap.Logger
}

// NewAssistant wires the pipeline stages together
func NewAssistant(t TelemetrySummarizer, r DocumentRetriever, a AdviceGenerator, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{Telemetry: t, Retriever: r, Advisor: a, Logger: logger}
}

// GetSetupAdvice answers question, optionally informed by the telemetry CSV at
// telemetryPath ("" means none), and returns the model's raw answer
func (a *Assistant) GetSetupAdvice(ctx context.Context, question, telemetryPath string) (string, error) {
	advice, err := a.Advise(ctx, models.AdviceRequest{Question: question, TelemetryPath: telemetryPath})
	if err != nil {
		return "", err
	}
	return advice.Answer, nil
}

// Advise runs telemetry summary, retrieval, context assembly and generation in
// order. Telemetry problems are rendered into the prompt; retrieval and model
// failures are returned.
func (a *Assistant) Advise(ctx context.Context, req models.AdviceRequest) (*models.Advice, error) {
	start := time.Now()
	status := metrics.StatusError
	defer func() {
		metrics.AdviceRequestsTotal.WithLabelValues(status).Inc()
		metrics.AdviceDuration.Observe(time.Since(start).Seconds())
	}()

	tel := a.Telemetry.Summarize(req.TelemetryPath)
	metrics.TelemetryResultsTotal.WithLabelValues(tel.Status.String()).Inc()
	if tel.Status == telemetry.StatusFailed {
		a.Logger.Warn("telemetry could not be summarized",
			zap.String("path", req.TelemetryPath),
			zap.Error(tel.Err))
	}

	docs, err := a.Retriever.Retrieve(ctx, req.Question)
	if err != nil {
		a.Logger.Error("retrieval failed", zap.Error(err))
		return nil, err
	}
	metrics.RetrievedDocuments.Observe(float64(len(docs)))

	result, err := a.Advisor.Generate(ctx, advisor.PromptData{
		Context:   retriever.FormatDocs(docs),
		Telemetry: tel.Text(),
		Question:  req.Question,
	})
	if err != nil {
		a.Logger.Error("generation failed", zap.Error(err))
		return nil, err
	}

	status = metrics.StatusSuccess
	a.Logger.Info("advice generated",
		zap.Int("documents", len(docs)),
		zap.String("telemetry", tel.Status.String()),
		zap.Int("attempts", result.Attempts),
		zap.Duration("took", time.Since(start)))

	return &models.Advice{
		Answer:     result.Answer,
		Sources:    docs,
		Telemetry:  tel.Text(),
		Violations: result.Violations,
		Attempts:   result.Attempts,
		Timestamp:  time.Now(),
	}, nil
}
