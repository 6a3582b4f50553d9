// Package index maintains the run-scoped vector index in Postgres. Each
// analysis run owns its rows; the chat service only ever queries inside a
// single run, and deleting a run drops its rows in one pass.
package index

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/marchepublic/ao-agent/database"
	"github.com/marchepublic/ao-agent/document"
	"github.com/marchepublic/ao-agent/embeddings"
)

// ChunkResult is one retrieved chunk with its source document.
type ChunkResult struct {
	ChunkID      uuid.UUID
	DocumentID   uuid.UUID
	DocumentName string
	DocumentType string
	Content      string
	Score        float64
}

// Store writes and queries the run-scoped pgvector index.
type Store struct {
	pool      *pgxpool.Pool
	embedder  embeddings.Embedder
	logger    *log.Logger
	dimension int
}

func NewStore(pool *pgxpool.Pool, embedder embeddings.Embedder, logger *log.Logger, dimension int) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		pool:      pool,
		embedder:  embedder,
		logger:    logger,
		dimension: dimension,
	}
}

// BuildRun indexes the extracted documents of a run. Documents without text
// are skipped; the run directory keeps the authoritative record, the index
// only serves retrieval.
func (s *Store) BuildRun(ctx context.Context, runID string, records []*document.Record) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if s.embedder == nil {
		return fmt.Errorf("embedder not configured")
	}
	if err := database.EnsureTenderSchema(ctx, s.pool, s.dimension); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	for _, rec := range records {
		if err := s.indexDocument(ctx, runID, rec); err != nil {
			s.logger.Printf("index failed for %s: %v", rec.Name, err)
		}
	}

	return nil
}

func (s *Store) indexDocument(ctx context.Context, runID string, rec *document.Record) (err error) {
	chunks := ChunkText(rec.Content, defaultChunkSize, defaultChunkOverlap)
	if len(chunks) == 0 {
		s.logger.Printf("skip empty document %s", rec.Name)
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(vectors))
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Printf("rollback error: %v", rbErr)
			}
		}
	}()

	docID := uuid.New()
	if _, err = tx.Exec(ctx, "DELETE FROM ao_documents WHERE run_id = $1 AND name = $2", runID, rec.Name); err != nil {
		return fmt.Errorf("clear existing document: %w", err)
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO ao_documents (id, run_id, name, doc_type, content_length, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, docID, runID, rec.Name, rec.Type.Label(), len(rec.Content)); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for idx, text := range chunks {
		vec := pgvector.NewVector(vectors[idx])
		if _, err = tx.Exec(ctx, `
			INSERT INTO ao_chunks (id, run_id, document_id, chunk_index, content, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, uuid.New(), runID, docID, idx, text, vec); err != nil {
			return fmt.Errorf("insert chunk %d: %w", idx, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Printf("indexed %s (%d chunks)", rec.Name, len(chunks))
	return nil
}

// SimilarChunks returns the closest chunks of a single run.
func (s *Store) SimilarChunks(ctx context.Context, runID string, embedding []float32, limit int) ([]ChunkResult, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if limit <= 0 {
		limit = 5
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := limit * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT
            ac.id,
            ac.document_id,
            ad.name,
            ad.doc_type,
            ac.content,
            (ac.embedding <-> $2::vector) AS distance
        FROM ao_chunks ac
        JOIN ao_documents ad ON ad.id = ac.document_id
        WHERE ac.run_id = $1
        ORDER BY ac.embedding <-> $2::vector
        LIMIT $3
    `, runID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	results := make([]ChunkResult, 0)
	for rows.Next() {
		var item ChunkResult
		var distance float64
		if scanErr := rows.Scan(&item.ChunkID, &item.DocumentID, &item.DocumentName, &item.DocumentType, &item.Content, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		item.Score = 1 / (1 + distance)
		results = append(results, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

// DeleteRun removes every index row belonging to runID.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM ao_documents WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("delete run documents: %w", err)
	}
	return nil
}
