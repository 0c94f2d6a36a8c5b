package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"racing-setup-rag/internal/models"
)

// IndexFileName is the file the SQLite index lives in, inside the index directory
const IndexFileName = "index.db"

const sqliteSchema = `
CREATE TABLE documents (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	source TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	embedding BLOB NOT NULL
);
CREATE TABLE index_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore keeps the index in a single SQLite file and scores
// similarity in process. A missing file is an empty index.
type SQLiteStore struct {
	dir string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens the index in dir if one has been built
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	s := &SQLiteStore{dir: dir}
	if err := s.reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the location of the index file
func (s *SQLiteStore) Path() string {
	return filepath.Join(s.dir, IndexFileName)
}

// reopen swaps the open handle for the current index file; callers hold mu or own s exclusively
func (s *SQLiteStore) reopen() error {
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}

	if _, err := os.Stat(s.Path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat index: %w", err)
	}

	db, err := sql.Open("sqlite", s.Path())
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	// one connection keeps every query on the same index file until the next reopen
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

// Rebuild writes a fresh index next to the current one and renames it into
// place, so readers never see a partial index
func (s *SQLiteStore) Rebuild(ctx context.Context, meta IndexMeta, docs []models.Document) error {
	if err := validateDocuments(meta, docs); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp := filepath.Join(s.dir, ".index-"+uuid.NewString()+".db")
	if err := writeSQLiteIndex(ctx, tmp, meta, docs); err != nil {
		os.Remove(tmp)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Rename(tmp, s.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return s.reopen()
}

func writeSQLiteIndex(ctx context.Context, path string, meta IndexMeta, docs []models.Document) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, position, source, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range docs {
		if _, err := stmt.ExecContext(ctx, doc.ID, i, doc.Source, doc.ChunkIndex, doc.Content, encodeVector(doc.Embedding)); err != nil {
			return fmt.Errorf("failed to store document %s: %w", doc.Source, err)
		}
	}

	for key, value := range metaToRows(meta) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("failed to store index metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Meta reads the build metadata, nil when no index has been built
func (s *SQLiteStore) Meta(ctx context.Context) (*IndexMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta(ctx)
}

func (s *SQLiteStore) meta(ctx context.Context) (*IndexMeta, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM index_meta`)
	if err != nil {
		return nil, fmt.Errorf("failed to query index metadata: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return metaFromRows(values)
}

// QuerySimilar scores every stored document by cosine similarity.
// Ties keep indexing order.
func (s *SQLiteStore) QuerySimilar(ctx context.Context, embedding []float32, limit int) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.meta(ctx)
	if err != nil {
		return nil, err
	}
	if meta == nil || limit <= 0 {
		return nil, nil
	}
	if len(embedding) != meta.Dimension {
		return nil, fmt.Errorf("%w: query has %d values, index has %d",
			ErrDimensionMismatch, len(embedding), meta.Dimension)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, chunk_index, content, embedding
		FROM documents
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var (
			doc  models.Document
			blob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.ChunkIndex, &doc.Content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		doc.Score = cosineSimilarity(embedding, vec)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Ping checks the index file is readable; an unbuilt index is healthy
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// Close releases the index file
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
