// Package processor turns a directory of setup guides into indexable documents.
package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"racing-setup-rag/internal/models"
)

// documentNamespace scopes document IDs so they are stable across rebuilds
var documentNamespace = uuid.MustParse("6f1c9a52-3b7e-4d0c-9a8e-2f5d1b7c4e90")

// DocumentProcessor loads setup guides from disk
type DocumentProcessor struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewDocumentProcessor creates a new processor. A chunk size of 0 keeps every
// file as a single document.
func NewDocumentProcessor(chunkSize, chunkOverlap int) *DocumentProcessor {
	return &DocumentProcessor{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// LoadDocuments walks dir recursively and loads every .txt and .pdf file.
// A directory that does not exist yields no documents and no error.
func (p *DocumentProcessor) LoadDocuments(dir string) ([]models.Document, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat documents directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents path %s is not a directory", dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".pdf":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk documents directory: %w", err)
	}
	sort.Strings(paths)

	var docs []models.Document
	for _, path := range paths {
		text, err := readText(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		source := filepath.ToSlash(rel)

		for i, chunk := range p.split(text) {
			docs = append(docs, models.Document{
				ID:         DocumentID(source, i),
				Source:     source,
				ChunkIndex: i,
				Content:    chunk,
			})
		}
	}

	return docs, nil
}

// DocumentID derives a deterministic ID from the source path and chunk position
func DocumentID(source string, chunkIndex int) string {
	return uuid.NewSHA1(documentNamespace, []byte(source+"#"+strconv.Itoa(chunkIndex))).String()
}

func readText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return ExtractPDFText(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *DocumentProcessor) split(text string) []string {
	if p.ChunkSize <= 0 || len(text) <= p.ChunkSize {
		return []string{text}
	}
	return chunkParagraphs(text, p.ChunkSize, p.ChunkOverlap)
}
