// Package pipeline runs a full consultation analysis: ingest the uploaded
// files, classify and analyze each document, aggregate across documents,
// generate the technical memory and persist the run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/marchepublic/ao-agent/agents"
	"github.com/marchepublic/ao-agent/config"
	"github.com/marchepublic/ao-agent/crossdoc"
	"github.com/marchepublic/ao-agent/document"
	"github.com/marchepublic/ao-agent/extract"
	"github.com/marchepublic/ao-agent/knowledge"
	"github.com/marchepublic/ao-agent/memory"
	"github.com/marchepublic/ao-agent/session"
)

const noAnalysisSummary = "Aucune analyse disponible"

// Indexer builds the run-scoped retrieval index. Optional.
type Indexer interface {
	BuildRun(ctx context.Context, runID string, records []*document.Record) error
}

// GraphStore mirrors the run into the knowledge graph. Optional.
type GraphStore interface {
	SyncRun(ctx context.Context, run knowledge.Run) error
}

// Run is the outcome of one analysis.
type Run struct {
	ID      string
	Records []*document.Record
	Cross   crossdoc.CrossAnalysis
	Memory  memory.TechnicalMemory
	Summary string
}

// Service wires the analysis stages together.
type Service struct {
	cfg          config.Config
	extractor    *extract.Extractor
	orchestrator *agents.Orchestrator
	aggregator   *crossdoc.Aggregator
	generator    *memory.Generator
	store        *session.Store
	indexer      Indexer
	graph        GraphStore
	logger       *log.Logger
}

func NewService(cfg config.Config, extractor *extract.Extractor, orchestrator *agents.Orchestrator, aggregator *crossdoc.Aggregator, generator *memory.Generator, store *session.Store, indexer Indexer, graph GraphStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		cfg:          cfg,
		extractor:    extractor,
		orchestrator: orchestrator,
		aggregator:   aggregator,
		generator:    generator,
		store:        store,
		indexer:      indexer,
		graph:        graph,
		logger:       logger,
	}
}

// Analyze processes the given source files as one run. An empty runID gets a
// fresh identifier. Files are copied under the data directory so the run
// keeps its own inputs.
func (s *Service) Analyze(ctx context.Context, runID string, paths []string) (*Run, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to analyze")
	}
	if runID == "" {
		runID = session.NewRunID()
	}

	uploadDir := filepath.Join(s.cfg.DataDir, runID)
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	records := make([]*document.Record, 0, len(paths))
	for _, src := range paths {
		dst := filepath.Join(uploadDir, filepath.Base(src))
		if src != dst {
			if err := copyFile(src, dst); err != nil {
				return nil, fmt.Errorf("stage %s: %w", filepath.Base(src), err)
			}
		}

		content := s.extractor.Extract(dst)
		rec := &document.Record{
			Name:    filepath.Base(src),
			Type:    document.Classify(filepath.Base(src), content),
			Content: content,
		}
		s.logger.Printf("run %s: %s classified as %s", runID, rec.Name, rec.Type.Label())

		s.orchestrator.Orchestrate(ctx, rec)
		records = append(records, rec)
	}

	cross := s.aggregator.Aggregate(ctx, records)
	mem := s.generator.Generate(ctx, cross, nil)
	summary := GlobalSummary(records)

	persisted := make([]session.DocumentRecord, 0, len(records))
	for _, rec := range records {
		persisted = append(persisted, session.DocumentRecord{
			Name:     rec.Name,
			Type:     rec.Type.Label(),
			Analysis: rec.Analysis,
		})
	}
	if err := s.store.Persist(runID, persisted, cross, mem, summary); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}

	// Index and graph are best-effort side channels; the persisted run is
	// already complete without them.
	if s.indexer != nil {
		if err := s.indexer.BuildRun(ctx, runID, records); err != nil {
			s.logger.Printf("run %s: index build failed: %v", runID, err)
		}
	}
	if s.graph != nil {
		if err := s.graph.SyncRun(ctx, graphRun(runID, records)); err != nil {
			s.logger.Printf("run %s: graph sync failed: %v", runID, err)
		}
	}

	return &Run{
		ID:      runID,
		Records: records,
		Cross:   cross,
		Memory:  mem,
		Summary: summary,
	}, nil
}

// GlobalSummary assembles the per-document digest shown alongside the run.
func GlobalSummary(records []*document.Record) string {
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		if len(rec.Analysis) == 0 {
			continue
		}
		payload, err := json.Marshal(rec.Analysis)
		if err != nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("**%s** : %s", rec.Type.Label(), payload))
	}
	if len(parts) == 0 {
		return noAnalysisSummary
	}
	return strings.Join(parts, "\n\n")
}

func graphRun(runID string, records []*document.Record) knowledge.Run {
	run := knowledge.Run{ID: runID}
	for _, rec := range records {
		run.Documents = append(run.Documents, knowledge.Document{
			Name:          rec.Name,
			TypeLabel:     rec.Type.Label(),
			ContentLength: len(rec.Content),
			HasAnalysis:   len(rec.Analysis) > 0,
		})
		for _, key := range []string{"contraintes_environnementales", "contraintes_logistiques"} {
			if value, ok := rec.Analysis[key]; ok && value != nil {
				run.Categories = append(run.Categories, knowledge.Category{
					Name:         key,
					DocumentName: rec.Name,
				})
			}
		}
	}
	return run
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}
	return out.Close()
}
