package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func statLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.Contains(l, "avg=") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestSummarizeNoFile(t *testing.T) {
	res := NewSummarizer(nil).Summarize("")

	assert.Equal(t, StatusNone, res.Status)
	assert.Equal(t, "No telemetry data provided.", res.Text())
}

func TestSummarizeMatchingColumnsOnly(t *testing.T) {
	path := writeCSV(t, "session.csv", "Timestamp,RR_Shock_Travel\n0.0,1.5\n0.1,2.5\n0.2,3.25\n")

	res := NewSummarizer(nil).Summarize(path)
	require.Equal(t, StatusSummary, res.Status, res.Text())

	lines := statLines(res.Text())
	require.Len(t, lines, 1)
	assert.Equal(t, "RR_Shock_Travel: avg=2.42, max=3.25", lines[0])
	assert.True(t, strings.HasPrefix(res.Text(), "Telemetry Summary for session.csv:\n"))
}

func TestSummarizeStatistics(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    []string
		columns int
	}{
		{
			name:    "several keyword columns keep header order",
			csv:     "LFTempM,Speed,LFShockDefl,RRshockVel\n180,50,0.5,1\n190,60,1.5,2\n200,70,2.5,3\n",
			want:    []string{"LFTempM: avg=190.00, max=200.00", "LFShockDefl: avg=1.50, max=2.50"},
			columns: 2,
		},
		{
			name:    "keyword match is case sensitive",
			csv:     "tire_temp,RF_Travel\n1,2\n",
			want:    []string{"RF_Travel: avg=2.00, max=2.00"},
			columns: 1,
		},
		{
			name:    "blank cells are skipped",
			csv:     "LR_Shock\n1\n\n3\n",
			want:    []string{"LR_Shock: avg=2.00, max=3.00"},
			columns: 1,
		},
		{
			name:    "NaN cells are skipped",
			csv:     "RF_Temp\n100\nNaN\n120\n",
			want:    []string{"RF_Temp: avg=110.00, max=120.00"},
			columns: 1,
		},
		{
			name:    "missing value markers are skipped",
			csv:     "RF_Temp,LR_Shock\n100,NA\nN/A,1\nnull,#N/A\n120,3\n<NA>,None\n",
			want:    []string{"RF_Temp: avg=110.00, max=120.00", "LR_Shock: avg=2.00, max=3.00"},
			columns: 2,
		},
		{
			name:    "column of markers only",
			csv:     "RF_Temp\nNA\nnan\n",
			want:    []string{"RF_Temp: avg=nan, max=nan"},
			columns: 1,
		},
		{
			name:    "byte order mark is dropped from the first column",
			csv:     "\ufeffLF_Temp,Speed\n1,2\n3,4\n",
			want:    []string{"LF_Temp: avg=2.00, max=3.00"},
			columns: 1,
		},
		{
			name:    "short rows are padded",
			csv:     "Time,RF_Temp\n1,100\n2\n3,110\n",
			want:    []string{"RF_Temp: avg=105.00, max=110.00"},
			columns: 1,
		},
		{
			name:    "negative values",
			csv:     "LF_Shock_Travel\n-1.25\n-0.75\n",
			want:    []string{"LF_Shock_Travel: avg=-1.00, max=-0.75"},
			columns: 1,
		},
		{
			name:    "header only",
			csv:     "RF_Temp\n",
			want:    []string{"RF_Temp: avg=nan, max=nan"},
			columns: 1,
		},
		{
			name:    "no matching columns",
			csv:     "Speed,Throttle\n1,2\n",
			columns: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSummarizer(nil).Summarize(writeCSV(t, "t.csv", tt.csv))
			require.Equal(t, StatusSummary, res.Status, res.Text())
			assert.Len(t, res.Columns, tt.columns)
			lines := statLines(res.Text())
			if tt.want == nil {
				assert.Empty(t, lines)
				return
			}
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestSummarizeFailures(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.csv") },
			want: "no such file",
		},
		{
			name: "empty file",
			path: func(t *testing.T) string { return writeCSV(t, "empty.csv", "") },
			want: "no columns",
		},
		{
			name: "non numeric value",
			path: func(t *testing.T) string { return writeCSV(t, "bad.csv", "RF_Temp\nhot\n") },
			want: "non-numeric",
		},
		{
			name: "too many fields",
			path: func(t *testing.T) string { return writeCSV(t, "wide.csv", "RF_Temp\n1,2\n") },
			want: "expected 1 fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewSummarizer(nil).Summarize(tt.path(t))

			assert.Equal(t, StatusFailed, res.Status)
			require.Error(t, res.Err)
			assert.True(t, strings.HasPrefix(res.Text(), "Error reading telemetry: "))
			assert.Contains(t, res.Text(), tt.want)
		})
	}
}

func TestSummarizeCustomKeywords(t *testing.T) {
	path := writeCSV(t, "upload.csv", "LF_Pressure,LF_Temp\n12,100\n14,120\n")
	res := NewSummarizer([]string{"Pressure"}).Summarize(path)

	require.Equal(t, StatusSummary, res.Status)
	assert.Equal(t, []string{"LF_Pressure: avg=13.00, max=14.00"}, statLines(res.Text()))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "none", StatusNone.String())
	assert.Equal(t, "summary", StatusSummary.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
