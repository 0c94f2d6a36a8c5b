package models

import "time"

// Document is a unit of setup-guide text: one file, or one chunk of a file
type Document struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	// Score is the similarity to the query; only set on retrieval results
	Score float64 `json:"score,omitempty"`
}

// AdviceRequest is a single driver interaction
type AdviceRequest struct {
	Question string `json:"question"`
	// TelemetryPath is empty when no telemetry file was supplied
	TelemetryPath string `json:"telemetry_path,omitempty"`
}

// Advice is the result of one pass through the advice pipeline
type Advice struct {
	Answer     string     `json:"answer"`
	Sources    []Document `json:"sources"`
	Telemetry  string     `json:"telemetry"`
	Violations []string   `json:"violations,omitempty"`
	Attempts   int        `json:"attempts"`
	Timestamp  time.Time  `json:"timestamp"`
}
