package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureTenderSchema creates the run-scoped document and chunk tables. Chunks
// carry the run identifier so a whole consultation can be dropped in one
// statement when the session is purged.
func EnsureTenderSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS ao_documents (
			id UUID PRIMARY KEY,
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			content_length INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(run_id, name)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ao_chunks (
			id UUID PRIMARY KEY,
			run_id TEXT NOT NULL,
			document_id UUID NOT NULL REFERENCES ao_documents(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, chunk_index)
		)`, dimension),
		"CREATE INDEX IF NOT EXISTS idx_ao_documents_run ON ao_documents(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_ao_chunks_run ON ao_chunks(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_ao_chunks_document ON ao_chunks(document_id)",
		"CREATE INDEX IF NOT EXISTS idx_ao_chunks_embedding ON ao_chunks USING ivfflat (embedding vector_l2_ops)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
