// Package agents implements the specialised extraction agents and the
// per-document orchestration that runs them.
package agents

import (
	"context"
	"fmt"

	"github.com/marchepublic/ao-agent/analysis"
	"github.com/marchepublic/ao-agent/llm"
)

const (
	defaultPromptBudget = 4000
	// The similarity detector works on a smaller window than the main agents.
	similarityWindow = 2000

	envKey = "contraintes_environnementales"
	logKey = "contraintes_logistiques"
)

// ReferenceProject describes one known past-project archetype used by the
// similarity detection pass.
type ReferenceProject struct {
	Type        string
	Contraintes []string
	Duree       string
	Montant     string
}

// ReferenceProjects lists the hardcoded archetypes, keyed by template id.
var ReferenceProjects = map[string]ReferenceProject{
	"restauration_facade": {
		Type:        "Restauration façade monument historique",
		Contraintes: []string{"échafaudage", "protection vitraux", "pierre de taille"},
		Duree:       "6 mois",
		Montant:     "30000-50000€",
	},
	"renovation_interieur": {
		Type:        "Rénovation intérieur église",
		Contraintes: []string{"conservation peintures", "accès limité", "éclairage"},
		Duree:       "4 mois",
		Montant:     "20000-35000€",
	},
	"consolidation_structure": {
		Type:        "Consolidation structure",
		Contraintes: []string{"renforcement", "étaiement", "sécurité"},
		Duree:       "8 mois",
		Montant:     "50000-80000€",
	},
}

// Analyzer runs the typed extraction agents against document content.
type Analyzer struct {
	llm          llm.Client
	promptBudget int
}

func NewAnalyzer(client llm.Client, promptBudget int) *Analyzer {
	if promptBudget <= 0 {
		promptBudget = defaultPromptBudget
	}
	return &Analyzer{llm: client, promptBudget: promptBudget}
}

// AnalyzeReglement extracts selection criteria, deadlines, administrative
// terms, site conditions, required documents, and risks.
func (a *Analyzer) AnalyzeReglement(ctx context.Context, content string) (analysis.Result, error) {
	return a.run(ctx, reglementPrompt, content, a.promptBudget, "analyse")
}

// AnalyzeCCTP extracts the technical requirements and, when the response
// parsed, merges a similarity detection pass under similitudes_chantiers.
func (a *Analyzer) AnalyzeCCTP(ctx context.Context, content string) (analysis.Result, error) {
	result, err := a.run(ctx, cctpPrompt, content, a.promptBudget, "analyse")
	if err != nil {
		return analysis.Result{}, err
	}

	if !result.Fallback {
		result.Fields["similitudes_chantiers"] = a.DetectSimilarProjects(ctx, content).Fields
	}

	return result, nil
}

// AnalyzeCCAP extracts penalties, critical deadlines, administrative
// obligations, payment terms, guarantees, and logistical constraints.
func (a *Analyzer) AnalyzeCCAP(ctx context.Context, content string) (analysis.Result, error) {
	return a.run(ctx, ccapPrompt, content, a.promptBudget, "analyse")
}

// AnalyzeDPGF extracts quantities, unit costs, lot breakdown, and planning.
func (a *Analyzer) AnalyzeDPGF(ctx context.Context, content string) (analysis.Result, error) {
	return a.run(ctx, dpgfPrompt, content, a.promptBudget, "analyse")
}

// AnalyzeEnvironmental is the cross-cutting environmental-constraints agent.
// Its fallback wraps raw text under the constraints key itself.
func (a *Analyzer) AnalyzeEnvironmental(ctx context.Context, content string) (analysis.Result, error) {
	return a.run(ctx, environmentalPrompt, content, a.promptBudget, envKey)
}

// AnalyzeLogistical is the cross-cutting logistical-constraints agent.
func (a *Analyzer) AnalyzeLogistical(ctx context.Context, content string) (analysis.Result, error) {
	return a.run(ctx, logisticalPrompt, content, a.promptBudget, logKey)
}

// DetectSimilarProjects compares the content against the reference archetypes.
// Any failure, upstream or parse, degrades to a placeholder mapping.
func (a *Analyzer) DetectSimilarProjects(ctx context.Context, content string) analysis.Result {
	prompt := fmt.Sprintf(similarProjectsPrompt, Truncate(content, similarityWindow))

	text, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return analysis.Result{
			Fields:   map[string]any{"similitudes": "Analyse non disponible"},
			Fallback: true,
		}
	}

	result := analysis.Decode(text, "similitudes")
	if result.Fallback {
		result.Fields = map[string]any{"similitudes": "Analyse non disponible"}
	}
	return result
}

func (a *Analyzer) run(ctx context.Context, template, content string, budget int, fallbackKey string) (analysis.Result, error) {
	prompt := fmt.Sprintf(template, Truncate(content, budget))

	text, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("completion call: %w", err)
	}

	return analysis.Decode(text, fallbackKey), nil
}

// Truncate limits content to at most budget runes. Rune-based so accented
// French text is never cut mid-character.
func Truncate(content string, budget int) string {
	if budget <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= budget {
		return content
	}
	return string(runes[:budget])
}
