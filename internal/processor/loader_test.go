package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDocumentsRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "springs.txt", "RF spring: adjust in 10 lb increments, range 200-400 lb.")
	writeFile(t, dir, "dampers/shocks.txt", "LR shock rebound: 0-10 clicks.")
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, "blank.txt", "  \n\n ")

	docs, err := NewDocumentProcessor(0, 0).LoadDocuments(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "dampers/shocks.txt", docs[0].Source)
	assert.Equal(t, "LR shock rebound: 0-10 clicks.", docs[0].Content)
	assert.Equal(t, "springs.txt", docs[1].Source)
	assert.Equal(t, "RF spring: adjust in 10 lb increments, range 200-400 lb.", docs[1].Content)
	for _, d := range docs {
		assert.NotEmpty(t, d.ID)
		assert.Zero(t, d.ChunkIndex)
	}
}

func TestLoadDocumentsMissingDirectory(t *testing.T) {
	docs, err := NewDocumentProcessor(0, 0).LoadDocuments(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadDocumentsEmptyDirectory(t *testing.T) {
	docs, err := NewDocumentProcessor(0, 0).LoadDocuments(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadDocumentsRejectsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.txt", "x")

	_, err := NewDocumentProcessor(0, 0).LoadDocuments(filepath.Join(dir, "guide.txt"))
	assert.Error(t, err)
}

func TestDocumentIDsAreStable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "alpha")

	p := NewDocumentProcessor(0, 0)
	first, err := p.LoadDocuments(dir)
	require.NoError(t, err)
	second, err := p.LoadDocuments(dir)
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, DocumentID("a.txt", 0), first[0].ID)
	assert.NotEqual(t, DocumentID("a.txt", 0), DocumentID("a.txt", 1))
}

func TestLoadDocumentsChunked(t *testing.T) {
	dir := t.TempDir()
	paragraphs := []string{
		strings.Repeat("spring ", 10),
		strings.Repeat("shock ", 10),
		strings.Repeat("torsion ", 10),
	}
	writeFile(t, dir, "guide.txt", strings.Join(paragraphs, "\n\n"))

	docs, err := NewDocumentProcessor(90, 0).LoadDocuments(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, d := range docs {
		assert.Equal(t, i, d.ChunkIndex)
		assert.LessOrEqual(t, len(d.Content), 90)
		assert.Equal(t, DocumentID("guide.txt", i), d.ID)
	}
	assert.True(t, strings.HasPrefix(docs[1].Content, "shock"))
}

func TestChunkParagraphsOverlap(t *testing.T) {
	text := "first paragraph about RF spring rates\n\nsecond paragraph about LR shock clicks"

	chunks := chunkParagraphs(text, 60, 12)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first paragraph about RF spring rates", chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "spring rates\n\nsecond"), chunks[1])
}

func TestChunkParagraphsSplitsLongParagraph(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("click ", 40))

	chunks := chunkParagraphs(text, 60, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 60)
	}
	assert.Equal(t, 40, strings.Count(strings.Join(chunks, " "), "click"))
}

func TestChunkParagraphsTinySizeStaysWithinLimit(t *testing.T) {
	text := "a b c d e\n\nf g"

	for _, tc := range []struct{ size, overlap int }{{3, 2}, {4, 2}, {3, 3}} {
		chunks := chunkParagraphs(text, tc.size, tc.overlap)
		require.NotEmpty(t, chunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), tc.size, "size %d overlap %d: %q", tc.size, tc.overlap, c)
		}
		assert.Equal(t, "abcdefg", strings.Join(strings.Fields(strings.Join(chunks, " ")), ""))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	in := "RF   spring\t rate\n\n\n\nLR  shock  \n"
	assert.Equal(t, "RF spring rate\n\nLR shock", normalizeWhitespace(in))
}
