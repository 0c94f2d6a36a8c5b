// Package telemetry reduces a telemetry CSV export to per-column statistics
// for the columns a setup engineer cares about.
package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// NoTelemetry is the summary text used when no file was supplied
const NoTelemetry = "No telemetry data provided."

// missingValues are the cell markers read as an empty cell
var missingValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

// DefaultKeywords are matched case-sensitively against column names
var DefaultKeywords = []string{"Temp", "Shock", "Travel"}

// Status tells the three summarizer outcomes apart
type Status int

const (
	StatusNone Status = iota
	StatusSummary
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusSummary:
		return "summary"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ColumnStats holds the aggregate values for one matching column
type ColumnStats struct {
	Name  string
	Mean  float64
	Max   float64
	Count int
}

// Result is the outcome of summarizing one telemetry file
type Result struct {
	Status  Status
	Source  string
	Columns []ColumnStats
	Err     error
}

// Text renders the result the way it is placed into the prompt
func (r Result) Text() string {
	switch r.Status {
	case StatusSummary:
		var sb strings.Builder
		fmt.Fprintf(&sb, "Telemetry Summary for %s:\n", r.Source)
		for _, c := range r.Columns {
			fmt.Fprintf(&sb, "%s: avg=%s, max=%s\n", c.Name, formatStat(c.Mean), formatStat(c.Max))
		}
		return sb.String()
	case StatusFailed:
		return fmt.Sprintf("Error reading telemetry: %v", r.Err)
	default:
		return NoTelemetry
	}
}

// Summarizer computes statistics for keyword-matching columns
type Summarizer struct {
	Keywords []string
}

// NewSummarizer creates a summarizer. Nil or empty keywords fall back to DefaultKeywords.
func NewSummarizer(keywords []string) *Summarizer {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &Summarizer{Keywords: keywords}
}

// Summarize never returns an error: failures are reported through Result.Status.
// An empty path means no telemetry was supplied.
func (s *Summarizer) Summarize(path string) Result {
	if path == "" {
		return Result{Status: StatusNone}
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{Status: StatusFailed, Source: filepath.Base(path), Err: err}
	}
	defer f.Close()

	columns, err := s.summarize(f)
	if err != nil {
		return Result{Status: StatusFailed, Source: filepath.Base(path), Err: err}
	}

	return Result{
		Status:  StatusSummary,
		Source:  filepath.Base(path),
		Columns: columns,
	}
}

func (s *Summarizer) summarize(r io.Reader) ([]ColumnStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("no columns to parse from file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	// column index -> position in stats
	matched := make(map[int]int)
	var stats []ColumnStats
	for i, name := range header {
		if s.matches(name) {
			matched[i] = len(stats)
			stats = append(stats, ColumnStats{Name: name, Max: math.Inf(-1)})
		}
	}

	sums := make([]float64, len(stats))
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line++

		if len(record) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(record))
		}

		for col, idx := range matched {
			if col >= len(record) {
				continue
			}
			raw := strings.TrimSpace(record[col])
			if missingValues[raw] {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: non-numeric value %q", line, header[col], raw)
			}
			if math.IsNaN(v) {
				continue
			}
			sums[idx] += v
			stats[idx].Count++
			if v > stats[idx].Max {
				stats[idx].Max = v
			}
		}
	}

	for i := range stats {
		if stats[i].Count == 0 {
			stats[i].Mean = math.NaN()
			stats[i].Max = math.NaN()
			continue
		}
		stats[i].Mean = sums[i] / float64(stats[i].Count)
	}

	return stats, nil
}

func (s *Summarizer) matches(column string) bool {
	for _, kw := range s.Keywords {
		if strings.Contains(column, kw) {
			return true
		}
	}
	return false
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
