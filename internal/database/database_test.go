package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racing-setup-rag/internal/config"
	"racing-setup-rag/internal/models"
)

func testDocs() []models.Document {
	return []models.Document{
		{ID: "3b0c5f52-0000-5000-8000-000000000001", Source: "springs.txt", Content: "Stiffen RF spring for entry push", Embedding: []float32{1, 0, 0}},
		{ID: "3b0c5f52-0000-5000-8000-000000000002", Source: "shocks.txt", Content: "Soften LR rebound for drive off", Embedding: []float32{0, 1, 0}},
		{ID: "3b0c5f52-0000-5000-8000-000000000003", Source: "tires.txt", Content: "Lower RR pressure for bite", Embedding: []float32{0.9, 0.1, 0}},
		{ID: "3b0c5f52-0000-5000-8000-000000000004", Source: "wing.txt", Content: "Move wing back for rotation", Embedding: []float32{1, 0, 0}},
	}
}

func testMeta(n int) IndexMeta {
	return IndexMeta{
		EmbeddingModel: "nomic-embed-text",
		Dimension:      3,
		DocumentCount:  n,
		BuiltAt:        time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStoreEmptyIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer s.Close()

	meta, err := s.Meta(context.Background())
	require.NoError(t, err)
	assert.Nil(t, meta)

	docs, err := s.QuerySimilar(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NoError(t, s.Ping(context.Background()))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "opening an empty index must not create files")
}

func TestSQLiteStoreRebuildAndQuery(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer s.Close()

	docs := testDocs()
	require.NoError(t, s.Rebuild(ctx, testMeta(len(docs)), docs))

	meta, err := s.Meta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, testMeta(len(docs)), *meta)

	got, err := s.QuerySimilar(ctx, []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// exact ties keep indexing order
	assert.Equal(t, "springs.txt", got[0].Source)
	assert.Equal(t, "wing.txt", got[1].Source)
	assert.Equal(t, "tires.txt", got[2].Source)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Nil(t, got[0].Embedding)

	got, err = s.QuerySimilar(ctx, []float32{0, 1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 4, "k larger than the index returns everything")
	assert.Equal(t, "shocks.txt", got[0].Source)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must be renamed away")
	assert.Equal(t, IndexFileName, entries[0].Name())
}

func TestSQLiteStoreRebuildReplaces(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer s.Close()

	docs := testDocs()
	require.NoError(t, s.Rebuild(ctx, testMeta(len(docs)), docs))
	require.NoError(t, s.Rebuild(ctx, testMeta(1), docs[1:2]))

	got, err := s.QuerySimilar(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "shocks.txt", got[0].Source)

	reopened, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	meta, err := reopened.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.DocumentCount)
}

func TestSQLiteStoreDimensionChecks(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	bad := testDocs()
	bad[2].Embedding = []float32{1, 0}
	err = s.Rebuild(ctx, testMeta(len(bad)), bad)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	docs := testDocs()
	require.NoError(t, s.Rebuild(ctx, testMeta(len(docs)), docs))
	_, err = s.QuerySimilar(ctx, []float32{1, 0}, 3)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCheckModel(t *testing.T) {
	assert.NoError(t, CheckModel(nil, "anything"))
	meta := testMeta(1)
	assert.NoError(t, CheckModel(&meta, "nomic-embed-text"))

	err := CheckModel(&meta, "text-embedding-3-small")
	assert.ErrorIs(t, err, ErrEmbeddingModelMismatch)
	assert.Contains(t, err.Error(), "nomic-embed-text")
}

func TestMetaRows(t *testing.T) {
	meta, err := metaFromRows(metaToRows(testMeta(7)))
	require.NoError(t, err)
	assert.Equal(t, testMeta(7), *meta)

	meta, err = metaFromRows(nil)
	require.NoError(t, err)
	assert.Nil(t, meta)

	_, err = metaFromRows(map[string]string{metaDimension: "x"})
	assert.Error(t, err)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)

	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-2, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), config.IndexConfig{Backend: "redis"})
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("SETUPQA_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SETUPQA_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, config.IndexConfig{Backend: "postgres", PostgresURL: url})
	require.NoError(t, err)
	defer store.Close()

	docs := testDocs()
	require.NoError(t, store.Rebuild(ctx, testMeta(len(docs)), docs))

	meta, err := store.Meta(ctx)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 3, meta.Dimension)

	got, err := store.QuerySimilar(ctx, []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "shocks.txt", got[0].Source)

	_, err = store.QuerySimilar(ctx, []float32{0, 1}, 2)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
