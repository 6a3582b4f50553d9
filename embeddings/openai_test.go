package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newEmbeddingBackend(t *testing.T, dimension int, captured *capturedEmbedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Errorf("decode embed request: %v", err)
		}

		vector := make([]float32, dimension)
		data := make([]map[string]any, len(captured.Input))
		for i := range captured.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vector}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  captured.Model,
			"data":   data,
		})
	}))
}

func TestOpenAIEmbedderRequestsConfiguredDimension(t *testing.T) {
	var captured capturedEmbedRequest
	server := newEmbeddingBackend(t, 4, &captured)
	defer server.Close()

	embedder := NewOpenAIEmbedder(Options{
		Model:         "text-embedding-3-small",
		Dimension:     4,
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: server.URL,
	})

	vectors, err := embedder.Embed(context.Background(), []string{"ravalement de façade"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if captured.Dimensions != 4 {
		t.Fatalf("expected the request to ask for 4 dimensions, got %d", captured.Dimensions)
	}
	if len(vectors) != 1 || len(vectors[0]) != 4 {
		t.Fatalf("unexpected vectors shape: %d x %d", len(vectors), len(vectors[0]))
	}
}

func TestOpenAIEmbedderRejectsDimensionMismatch(t *testing.T) {
	var captured capturedEmbedRequest
	server := newEmbeddingBackend(t, 3, &captured)
	defer server.Close()

	embedder := NewOpenAIEmbedder(Options{
		Model:         "text-embedding-3-small",
		Dimension:     4,
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: server.URL,
	})

	if _, err := embedder.Embed(context.Background(), []string{"texte"}); err == nil {
		t.Fatal("expected a dimension mismatch error")
	}
}
