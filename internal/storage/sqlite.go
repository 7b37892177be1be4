// Package storage provides the SQLite-backed chunk store that pairs with the
// binary vector index file to form the persisted knowledge index.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/annai/internal/models"
)

// ChunkStore persists chunk text and provenance. The vector index file holds
// only (id, embedding) pairs; chunk content is looked up here at retrieval time.
type ChunkStore struct {
	db *sql.DB
}

// NewChunkStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewChunkStore(dbPath string) (*ChunkStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &ChunkStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_position ON chunks(position);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceAll atomically replaces the stored chunks with the given set.
// Position records global insertion order so ties and listings keep the
// original chunk order across restarts.
func (s *ChunkStore) ReplaceAll(ctx context.Context, chunks []models.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source, content, chunk_index, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, ch := range chunks {
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.Source, ch.Content, ch.ChunkIndex, i); err != nil {
			return fmt.Errorf("insert chunk %s: %w", ch.ID, err)
		}
	}
	return tx.Commit()
}

// GetChunk returns a chunk by ID.
func (s *ChunkStore) GetChunk(ctx context.Context, id string) (*models.Chunk, error) {
	var ch models.Chunk
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, content, chunk_index FROM chunks WHERE id = ?`, id,
	).Scan(&ch.ID, &ch.Source, &ch.Content, &ch.ChunkIndex)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListChunks returns all chunks in original insertion order.
func (s *ChunkStore) ListChunks(ctx context.Context) ([]models.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, content, chunk_index FROM chunks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var ch models.Chunk
		if err := rows.Scan(&ch.ID, &ch.Source, &ch.Content, &ch.ChunkIndex); err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}

// CountChunks returns the number of stored chunks.
func (s *ChunkStore) CountChunks(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}
