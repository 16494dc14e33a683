// ABOUTME: Chunk storage operations for SQLite
// ABOUTME: Native ranked search via vec_cosine plus full scans for the fallback tiers
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harper/content-assistant/internal/models"
)

// ChunkStore handles chunk persistence and retrieval
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// Save inserts or replaces a chunk. Only the loader writes chunks.
func (s *ChunkStore) Save(ctx context.Context, chunk *models.Chunk) error {
	if chunk.ID == "" {
		return fmt.Errorf("chunk id is required")
	}
	if !chunk.Metadata.Type.IsValid() {
		return fmt.Errorf("chunk %s: invalid content type %q", chunk.ID, chunk.Metadata.Type)
	}

	var blob []byte
	if len(chunk.Embedding) > 0 {
		blob = vectorToBlob(chunk.Embedding)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO chunks (id, content, content_type, file_id, title, embedding, dims)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			content_type = excluded.content_type,
			file_id = excluded.file_id,
			title = excluded.title,
			embedding = excluded.embedding,
			dims = excluded.dims
	`, chunk.ID, chunk.Text, string(chunk.Metadata.Type), chunk.Metadata.FileID,
		chunk.Metadata.Title, blob, len(chunk.Embedding))
	return err
}

// SaveBatch saves chunks in a single transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []models.Chunk) error {
	tx, err := s.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, content, content_type, file_id, title, embedding, dims)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			return fmt.Errorf("chunk %d: id is required", i)
		}
		if !c.Metadata.Type.IsValid() {
			return fmt.Errorf("chunk %s: invalid content type %q", c.ID, c.Metadata.Type)
		}
		var blob []byte
		if len(c.Embedding) > 0 {
			blob = vectorToBlob(c.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Text, string(c.Metadata.Type), c.Metadata.FileID,
			c.Metadata.Title, blob, len(c.Embedding)); err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored chunks
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// CountByType returns chunk counts grouped by content type
func (s *ChunkStore) CountByType(ctx context.Context) (map[models.ContentType]int, error) {
	rows, err := s.db.Query(ctx, "SELECT content_type, COUNT(*) FROM chunks GROUP BY content_type")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[models.ContentType]int)
	for rows.Next() {
		var (
			ct string
			n  int
		)
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, err
		}
		counts[models.ContentType(ct)] = n
	}
	return counts, rows.Err()
}

// Dimensions returns the distinct embedding lengths present in the store
func (s *ChunkStore) Dimensions(ctx context.Context) ([]int, error) {
	rows, err := s.db.Query(ctx, "SELECT DISTINCT dims FROM chunks WHERE embedding IS NOT NULL ORDER BY dims")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dims []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// NativeSearch ranks chunks inside SQLite with vec_cosine. Results have
// score >= threshold, are ordered by score descending with ties in
// insertion order, and carry no embedding.
func (s *ChunkStore) NativeSearch(ctx context.Context, query []float64, limit int, threshold float64) ([]models.ScoredChunk, error) {
	dims, err := s.Dimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored dimensions: %w", err)
	}
	for _, d := range dims {
		if d != len(query) {
			return nil, fmt.Errorf("%w: query has %d components, store has %d", models.ErrDimensionMismatch, len(query), d)
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, content, content_type, file_id, title, score FROM (
			SELECT rowid AS rid, id, content, content_type, file_id, title,
				vec_cosine(embedding, ?) AS score
			FROM chunks
			WHERE embedding IS NOT NULL
		)
		WHERE score >= ?
		ORDER BY score DESC, rid ASC
		LIMIT ?
	`, vectorToBlob(query), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.ScoredChunk
	for rows.Next() {
		var (
			sc models.ScoredChunk
			ct string
		)
		if err := rows.Scan(&sc.Chunk.ID, &sc.Chunk.Text, &ct, &sc.Chunk.Metadata.FileID,
			&sc.Chunk.Metadata.Title, &sc.Score); err != nil {
			return nil, err
		}
		sc.Chunk.Metadata.Type = models.ContentType(ct)
		sc.Ranked = true
		results = append(results, sc)
	}
	return results, rows.Err()
}

// AllWithEmbeddings returns every chunk that has an embedding, in insertion order
func (s *ChunkStore) AllWithEmbeddings(ctx context.Context) ([]models.Chunk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, content, content_type, file_id, title, embedding
		FROM chunks
		WHERE embedding IS NOT NULL
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanChunks(rows, true)
}

// Prefix returns up to limit chunks in insertion order without ranking
func (s *ChunkStore) Prefix(ctx context.Context, limit int) ([]models.Chunk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, content, content_type, file_id, title
		FROM chunks
		ORDER BY rowid ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanChunks(rows, false)
}

// Delete removes a chunk by ID
func (s *ChunkStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, "DELETE FROM chunks WHERE id = ?", id)
	return err
}

func scanChunks(rows *sql.Rows, withEmbedding bool) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for rows.Next() {
		var (
			c    models.Chunk
			ct   string
			blob []byte
		)
		dest := []interface{}{&c.ID, &c.Text, &ct, &c.Metadata.FileID, &c.Metadata.Title}
		if withEmbedding {
			dest = append(dest, &blob)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		c.Metadata.Type = models.ContentType(ct)
		if len(blob) > 0 {
			c.Embedding = blobToVector(blob)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
