package chat

import (
	"context"

	"github.com/marchepublic/ao-agent/index"
)

// VectorStore retrieves chunks inside a single run.
type VectorStore interface {
	SimilarChunks(ctx context.Context, runID string, embedding []float32, limit int) ([]index.ChunkResult, error)
}

// GraphStore summarizes the run subgraph for prompt context. Optional.
type GraphStore interface {
	RunInsights(ctx context.Context, runID string) (string, error)
}

// Source is one document the answer drew from.
type Source struct {
	DocumentName string  `json:"document"`
	DocumentType string  `json:"type"`
	Snippet      string  `json:"extrait"`
	Score        float64 `json:"score"`
}

// Response is one answered question.
type Response struct {
	Answer  string   `json:"reponse"`
	Sources []Source `json:"sources"`
}
