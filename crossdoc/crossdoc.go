// Package crossdoc consolidates all per-document analyses of a run into a
// single recommendations-plus-constraints view.
package crossdoc

import (
	"context"
	"fmt"
	"log"

	"github.com/marchepublic/ao-agent/analysis"
	"github.com/marchepublic/ao-agent/document"
	"github.com/marchepublic/ao-agent/jsonutil"
	"github.com/marchepublic/ao-agent/llm"
)

// CrossAnalysis is the aggregate view over one run's documents.
type CrossAnalysis struct {
	RecommandationsStrategiques map[string]any    `json:"recommandations_strategiques"`
	SyntheseContraintes         ConstraintSummary `json:"synthese_contraintes"`
	DocumentsAnalyses           int               `json:"documents_analyses"`
	TypesDocuments              []string          `json:"types_documents"`
}

// ConstraintSummary buckets constraints by nature. The environmental and
// logistical buckets map document-type labels to that document's constraint
// fragment; the technical and administrative buckets hold the entire CCTP and
// CCAP analyses.
type ConstraintSummary struct {
	Environnementales map[string]any `json:"contraintes_environnementales"`
	Logistiques       map[string]any `json:"contraintes_logistiques"`
	Techniques        map[string]any `json:"contraintes_techniques"`
	Administratives   map[string]any `json:"contraintes_administratives"`
}

const recommendationsPrompt = `Basé sur les analyses suivantes de documents d'appel d'offres, génère des recommandations stratégiques :

ANALYSES :
%s

Génère des recommandations dans les domaines suivants :

1. STRATÉGIE DE RÉPONSE
   - Points forts à mettre en avant
   - Risques à anticiper
   - Opportunités à saisir
   - Stratégie de prix

2. PLANNING ET RESSOURCES
   - Délais critiques à respecter
   - Ressources humaines nécessaires
   - Matériaux et équipements
   - Sous-traitants potentiels

3. GESTION DES RISQUES
   - Risques techniques identifiés
   - Risques administratifs
   - Risques financiers
   - Mesures de mitigation

4. OPTIMISATIONS POSSIBLES
   - Réduction des coûts
   - Amélioration des délais
   - Optimisation des ressources
   - Innovations techniques

5. SIMILITUDES AVEC EXPÉRIENCES PASSÉES
   - Chantiers similaires réalisés
   - Techniques éprouvées
   - Retours d'expérience
   - Améliorations possibles

Réponds au format JSON structuré.`

// Aggregator builds the cross analysis for a run.
type Aggregator struct {
	llm    llm.Client
	logger *log.Logger
}

func NewAggregator(client llm.Client, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{llm: client, logger: logger}
}

// Aggregate combines all per-document analyses. One completion call produces
// the strategic recommendations; the constraint synthesis is deterministic.
// Nothing here is fatal: a failed recommendation call degrades to a
// placeholder.
func (a *Aggregator) Aggregate(ctx context.Context, records []*document.Record) CrossAnalysis {
	// Label-keyed map of analyses; a later document of the same type label
	// overwrites an earlier one, matching the historical behaviour.
	allAnalyses := map[string]any{}
	for _, rec := range records {
		if rec.Analysis != nil {
			allAnalyses[rec.Type.Label()] = rec.Analysis
		}
	}

	recommendations := a.recommend(ctx, allAnalyses)

	summary := ConstraintSummary{
		Environnementales: map[string]any{},
		Logistiques:       map[string]any{},
		Techniques:        map[string]any{},
		Administratives:   map[string]any{},
	}

	for label, raw := range allAnalyses {
		fields, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if env, ok := fields["contraintes_environnementales"]; ok {
			summary.Environnementales[label] = env
		}
		if logistics, ok := fields["contraintes_logistiques"]; ok {
			summary.Logistiques[label] = logistics
		}
		if label == document.CCTP.Label() {
			summary.Techniques = fields
		}
		if label == document.CCAP.Label() {
			summary.Administratives = fields
		}
	}

	types := make([]string, 0, len(records))
	for _, rec := range records {
		types = append(types, rec.Type.Label())
	}

	return CrossAnalysis{
		RecommandationsStrategiques: recommendations,
		SyntheseContraintes:         summary,
		DocumentsAnalyses:           len(records),
		TypesDocuments:              types,
	}
}

func (a *Aggregator) recommend(ctx context.Context, allAnalyses map[string]any) map[string]any {
	placeholder := map[string]any{"recommandations": "Analyse non disponible"}

	serialized, err := jsonutil.MarshalIndent(allAnalyses)
	if err != nil {
		a.logger.Printf("sérialisation des analyses: %v", err)
		return placeholder
	}

	text, err := a.llm.Complete(ctx, fmt.Sprintf(recommendationsPrompt, serialized))
	if err != nil {
		a.logger.Printf("recommandations stratégiques: %v", err)
		return placeholder
	}

	result := analysis.Decode(text, "recommandations")
	if result.Fallback {
		return placeholder
	}
	return result.Fields
}
