// Package chat answers questions about an analyzed consultation using the
// run-scoped vector index. Operational failures never kill a chat session:
// they come back as an inline answer and the conversation continues.
package chat

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/marchepublic/ao-agent/embeddings"
	"github.com/marchepublic/ao-agent/index"
	"github.com/marchepublic/ao-agent/llm"
)

const (
	defaultSimilarityLimit = 5
	snippetLimit           = 500
)

type Service struct {
	vectors  VectorStore
	graph    GraphStore
	embedder embeddings.Embedder
	llm      llm.Client
	logger   *log.Logger
}

func NewService(vectors VectorStore, graph GraphStore, embedder embeddings.Embedder, llmClient llm.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		vectors:  vectors,
		graph:    graph,
		embedder: embedder,
		llm:      llmClient,
		logger:   logger,
	}
}

// Ask answers one question inside a run's context and extends the history
// with the new turn. Retrieval or generation failures produce an inline
// error answer instead of an error return, so a long session survives a
// transient backend problem.
func (s *Service) Ask(ctx context.Context, runID, question string, history []llm.Message) (Response, []llm.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, nil, fmt.Errorf("question cannot be empty")
	}
	if runID == "" {
		return Response{}, nil, fmt.Errorf("run id cannot be empty")
	}
	if s.embedder == nil || s.vectors == nil || s.llm == nil {
		return Response{}, nil, fmt.Errorf("chat service is not fully configured")
	}

	resp := s.answer(ctx, runID, question, history)

	updated := make([]llm.Message, 0, len(history)+2)
	updated = append(updated, history...)
	updated = append(updated,
		llm.Message{Role: llm.RoleUser, Content: question},
		llm.Message{Role: llm.RoleAssistant, Content: resp.Answer},
	)
	return resp, updated, nil
}

func (s *Service) answer(ctx context.Context, runID, question string, history []llm.Message) Response {
	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return s.inlineError(fmt.Errorf("embed question: %w", err))
	}
	if len(vectors) == 0 {
		return s.inlineError(fmt.Errorf("embedder returned no vectors"))
	}

	chunks, err := s.vectors.SimilarChunks(ctx, runID, vectors[0], defaultSimilarityLimit)
	if err != nil {
		return s.inlineError(fmt.Errorf("vector search: %w", err))
	}

	insights := ""
	if s.graph != nil {
		if text, insightErr := s.graph.RunInsights(ctx, runID); insightErr != nil {
			s.logger.Printf("graph insights: %v", insightErr)
		} else {
			insights = text
		}
	}

	sources := mergeSources(chunks)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userPrompt(question, sources, insights)})

	answer, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return s.inlineError(fmt.Errorf("generate answer: %w", err))
	}

	return Response{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}
}

func (s *Service) inlineError(err error) Response {
	s.logger.Printf("chat: %v", err)
	return Response{Answer: fmt.Sprintf("Désolé, une erreur est survenue : %v", err)}
}

func mergeSources(chunks []index.ChunkResult) []Source {
	grouped := make(map[string]*Source, len(chunks))
	order := make([]string, 0, len(chunks))

	for i := range chunks {
		chunk := chunks[i]
		key := chunk.DocumentID.String()
		source, ok := grouped[key]
		if !ok {
			source = &Source{
				DocumentName: chunk.DocumentName,
				DocumentType: chunk.DocumentType,
				Score:        chunk.Score,
			}
			grouped[key] = source
			order = append(order, key)
		} else if chunk.Score > source.Score {
			source.Score = chunk.Score
		}

		snippet := truncateSnippet(strings.TrimSpace(chunk.Content))
		if source.Snippet == "" {
			source.Snippet = snippet
		} else if !strings.Contains(source.Snippet, snippet) {
			source.Snippet += "\n---\n" + snippet
		}
	}

	sources := make([]Source, 0, len(grouped))
	for _, key := range order {
		sources = append(sources, *grouped[key])
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Score > sources[j].Score
	})
	return sources
}

// truncateSnippet limits a snippet to snippetLimit runes. Rune-based so
// accented French text is never cut mid-character.
func truncateSnippet(snippet string) string {
	runes := []rune(snippet)
	if len(runes) <= snippetLimit {
		return snippet
	}
	return string(runes[:snippetLimit]) + "..."
}

const systemPrompt = `Tu es un assistant spécialisé dans l'analyse des dossiers de consultation des entreprises (appels d'offres de travaux).
Réponds en français, de façon précise et structurée, en t'appuyant sur les extraits de documents fournis.
Quand les extraits ne suffisent pas, dis-le clairement plutôt que d'inventer.`

func userPrompt(question string, sources []Source, insights string) string {
	var sb strings.Builder
	sb.WriteString("QUESTION :\n")
	sb.WriteString(question)

	if len(sources) > 0 {
		sb.WriteString("\n\nEXTRAITS DES DOCUMENTS DU DOSSIER :\n")
		for idx := range sources {
			source := &sources[idx]
			fmt.Fprintf(&sb, "\nSource %d : %s (%s)\n%s\n", idx+1, source.DocumentName, source.DocumentType, source.Snippet)
		}
	}
	if strings.TrimSpace(insights) != "" {
		sb.WriteString("\nSTRUCTURE DU DOSSIER :\n")
		sb.WriteString(insights)
		sb.WriteString("\n")
	}

	sb.WriteString("\nRéponds à la question en citant les sources utilisées (ex. [Source 1]).")
	return sb.String()
}
