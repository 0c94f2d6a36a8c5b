package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"racing-setup-rag/internal/models"
)

// annIndexThreshold is the document count above which an HNSW index is built;
// smaller tables are scanned exactly
const annIndexThreshold = 1000

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	if connStr == "" {
		return nil, errors.New("postgres connection string is empty")
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize enables pgvector and creates the metadata table.
// The documents table is created by Rebuild, once the vector dimension is known.
func (db *DB) Initialize(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to enable vector extension: %w", err)
	}

	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create index_meta table: %w", err)
	}

	return nil
}

// Rebuild drops and recreates the documents table inside one transaction,
// so concurrent readers see either the old index or the new one
func (db *DB) Rebuild(ctx context.Context, meta IndexMeta, docs []models.Document) error {
	if err := validateDocuments(meta, docs); err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS setup_documents`); err != nil {
		return fmt.Errorf("failed to drop setup_documents table: %w", err)
	}

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE setup_documents (
			id UUID PRIMARY KEY,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)
	`, meta.Dimension))
	if err != nil {
		return fmt.Errorf("failed to create setup_documents table: %w", err)
	}

	batch := &pgx.Batch{}
	for i, doc := range docs {
		batch.Queue(`
			INSERT INTO setup_documents (id, position, source, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, doc.ID, i, doc.Source, doc.ChunkIndex, doc.Content, pgvector.NewVector(doc.Embedding))
	}
	br := tx.SendBatch(ctx, batch)
	for _, doc := range docs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to store document %s: %w", doc.Source, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}

	if len(docs) >= annIndexThreshold {
		_, err = tx.Exec(ctx, `
			CREATE INDEX setup_documents_embedding_idx ON setup_documents
			USING hnsw (embedding vector_cosine_ops)
		`)
		if err != nil {
			return fmt.Errorf("failed to create vector index: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM index_meta`); err != nil {
		return fmt.Errorf("failed to clear index metadata: %w", err)
	}
	for key, value := range metaToRows(meta) {
		if _, err := tx.Exec(ctx, `INSERT INTO index_meta (key, value) VALUES ($1, $2)`, key, value); err != nil {
			return fmt.Errorf("failed to store index metadata: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

// Meta reads the build metadata, nil when no index has been built
func (db *DB) Meta(ctx context.Context) (*IndexMeta, error) {
	rows, err := db.Pool.Query(ctx, `SELECT key, value FROM index_meta`)
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

// QuerySimilar finds documents closest to the query embedding by cosine distance
func (db *DB) QuerySimilar(ctx context.Context, embedding []float32, limit int) ([]models.Document, error) {
	meta, err := db.Meta(ctx)
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

	rows, err := db.Pool.Query(ctx, `
		SELECT id::text, source, chunk_index, content, 1 - (embedding <=> $1) AS score
		FROM setup_documents
		ORDER BY embedding <=> $1, position
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.ChunkIndex, &doc.Content, &doc.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}

// Ping checks the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}
