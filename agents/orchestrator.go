package agents

import (
	"context"
	"log"

	"github.com/marchepublic/ao-agent/analysis"
	"github.com/marchepublic/ao-agent/document"
)

// UnavailablePlaceholder marks an analysis whose completion call failed
// upstream. The pipeline keeps going; the document is labelled, not dropped.
const UnavailablePlaceholder = "Analyse non disponible"

// Orchestrator selects and runs the extraction agents for one document.
type Orchestrator struct {
	analyzer *Analyzer
	logger   *log.Logger
}

func NewOrchestrator(analyzer *Analyzer, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{analyzer: analyzer, logger: logger}
}

// Orchestrate runs the primary agent for the record's type, then guarantees
// that both cross-cutting constraint keys are present in the result.
//
// For CCTP and CCAP the type-specific merge runs the matching cross-cutting
// agent unconditionally; the universal post-check below may then run the same
// agent a second time when the first pass produced an empty value. That double
// invocation mirrors the historical behaviour and is kept deliberately.
func (o *Orchestrator) Orchestrate(ctx context.Context, rec *document.Record) map[string]any {
	result := map[string]any{}

	switch rec.Type {
	case document.Reglement:
		result = o.primary(ctx, rec, o.analyzer.AnalyzeReglement)
	case document.CCTP:
		result = o.primary(ctx, rec, o.analyzer.AnalyzeCCTP)
		result[envKey] = o.crossCutting(ctx, rec, o.analyzer.AnalyzeEnvironmental)
	case document.CCAP:
		result = o.primary(ctx, rec, o.analyzer.AnalyzeCCAP)
		result[logKey] = o.crossCutting(ctx, rec, o.analyzer.AnalyzeLogistical)
	case document.DPGF:
		result = o.primary(ctx, rec, o.analyzer.AnalyzeDPGF)
	case document.Plans, document.Autre:
		// No primary agent; only the cross-cutting passes below apply.
	}

	if analysis.Empty(result[envKey]) {
		result[envKey] = o.crossCutting(ctx, rec, o.analyzer.AnalyzeEnvironmental)
	}
	if analysis.Empty(result[logKey]) {
		result[logKey] = o.crossCutting(ctx, rec, o.analyzer.AnalyzeLogistical)
	}

	rec.Analysis = result
	return result
}

type agentFunc func(ctx context.Context, content string) (analysis.Result, error)

func (o *Orchestrator) primary(ctx context.Context, rec *document.Record, agent agentFunc) map[string]any {
	result, err := agent(ctx, rec.Content)
	if err != nil {
		o.logger.Printf("analyse %s (%s): %v", rec.Name, rec.Type.Label(), err)
		return map[string]any{"analyse": UnavailablePlaceholder}
	}
	return result.Fields
}

func (o *Orchestrator) crossCutting(ctx context.Context, rec *document.Record, agent agentFunc) any {
	result, err := agent(ctx, rec.Content)
	if err != nil {
		o.logger.Printf("analyse transverse %s: %v", rec.Name, err)
		return UnavailablePlaceholder
	}
	return result.Fields
}
