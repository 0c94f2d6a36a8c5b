package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/indexer"
)

func TestRunWithoutDocumentsKeepsIndex(t *testing.T) {
	cfg := config.Default()
	cfg.Documents.Dir = filepath.Join(t.TempDir(), "setup_docs")
	cfg.Index.Dir = filepath.Join(t.TempDir(), "setup_index")

	require.NoError(t, run(context.Background(), cfg, zap.NewNop()))

	_, err := os.Stat(cfg.Index.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRootCmdRejectsUnknownBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	configPath = ""

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--backend", "redis"})
	assert.Error(t, cmd.Execute())
}

func TestLogDocumentStatistics(t *testing.T) {
	report := &indexer.BuildReport{
		Documents:     3,
		Sources:       2,
		PerSource:     map[string]int{"springs.txt": 2, "aero.pdf": 1},
		AverageLength: 120,
	}
	assert.NotPanics(t, func() { logDocumentStatistics(zap.NewNop(), report) })
}
