package crossdoc

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/marchepublic/ao-agent/document"
	"github.com/marchepublic/ao-agent/llm"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return s.response, s.err
}

var _ llm.Client = (*stubLLM)(nil)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestAggregateEmptyRun(t *testing.T) {
	agg := NewAggregator(&stubLLM{response: `{"strategie": "aucune"}`}, discardLogger())

	cross := agg.Aggregate(context.Background(), nil)
	if cross.DocumentsAnalyses != 0 {
		t.Fatalf("expected 0 documents, got %d", cross.DocumentsAnalyses)
	}
	if len(cross.TypesDocuments) != 0 {
		t.Fatalf("expected no type labels, got %v", cross.TypesDocuments)
	}
	for name, bucket := range map[string]map[string]any{
		"environnementales": cross.SyntheseContraintes.Environnementales,
		"logistiques":       cross.SyntheseContraintes.Logistiques,
		"techniques":        cross.SyntheseContraintes.Techniques,
		"administratives":   cross.SyntheseContraintes.Administratives,
	} {
		if bucket == nil || len(bucket) != 0 {
			t.Fatalf("bucket %s must be empty but non-nil, got %v", name, bucket)
		}
	}
}

func TestAggregateThreeDocumentScenario(t *testing.T) {
	records := []*document.Record{
		{Name: "01_reglement_consultation.txt", Type: document.Reglement, Analysis: map[string]any{
			"criteres": "60/40",
		}},
		{Name: "02_CCTP_techniques.txt", Type: document.CCTP, Analysis: map[string]any{
			"exigences":                     "pierre de taille",
			"contraintes_environnementales": map[string]any{"nuisances": "limitées"},
		}},
		{Name: "04_DPGF_quantitatif.txt", Type: document.DPGF, Analysis: map[string]any{
			"quantites": "450 m²",
		}},
	}

	agg := NewAggregator(&stubLLM{response: `{"strategie_reponse": {"points_forts": []}}`}, discardLogger())
	cross := agg.Aggregate(context.Background(), records)

	if cross.DocumentsAnalyses != 3 {
		t.Fatalf("expected 3 documents, got %d", cross.DocumentsAnalyses)
	}

	wantTypes := []string{
		"Règlement de consultation",
		"Cahier des Clauses Techniques Particulières",
		"Détail Quantitatif et Estimatif",
	}
	if len(cross.TypesDocuments) != len(wantTypes) {
		t.Fatalf("unexpected type labels: %v", cross.TypesDocuments)
	}
	for i, want := range wantTypes {
		if cross.TypesDocuments[i] != want {
			t.Fatalf("type label %d = %q, want %q", i, cross.TypesDocuments[i], want)
		}
	}

	// The whole CCTP analysis lands in the technical bucket.
	if cross.SyntheseContraintes.Techniques["exigences"] != "pierre de taille" {
		t.Fatalf("technical bucket missing CCTP analysis: %v", cross.SyntheseContraintes.Techniques)
	}
	// The environmental fragment is keyed by the CCTP label.
	env, ok := cross.SyntheseContraintes.Environnementales["Cahier des Clauses Techniques Particulières"]
	if !ok {
		t.Fatalf("environmental bucket missing CCTP fragment: %v", cross.SyntheseContraintes.Environnementales)
	}
	if env.(map[string]any)["nuisances"] != "limitées" {
		t.Fatalf("unexpected environmental fragment: %v", env)
	}

	if _, ok := cross.RecommandationsStrategiques["strategie_reponse"]; !ok {
		t.Fatalf("missing parsed recommendations: %v", cross.RecommandationsStrategiques)
	}
}

func TestAggregateCountsDocumentsWithoutAnalyses(t *testing.T) {
	records := []*document.Record{
		{Name: "a.pdf", Type: document.Plans},
		{Name: "b.pdf", Type: document.Autre},
	}

	agg := NewAggregator(&stubLLM{response: `{}`}, discardLogger())
	cross := agg.Aggregate(context.Background(), records)

	if cross.DocumentsAnalyses != 2 {
		t.Fatalf("count must include documents without analyses, got %d", cross.DocumentsAnalyses)
	}
	wantTypes := []string{"Plans et notes historiques", "Autre document"}
	for i, want := range wantTypes {
		if cross.TypesDocuments[i] != want {
			t.Fatalf("type label %d = %q, want %q", i, cross.TypesDocuments[i], want)
		}
	}
}

func TestAggregateRecommendationFailureDegrades(t *testing.T) {
	agg := NewAggregator(&stubLLM{err: errors.New("timeout")}, discardLogger())

	cross := agg.Aggregate(context.Background(), []*document.Record{
		{Name: "01_rc.pdf", Type: document.Reglement, Analysis: map[string]any{"k": "v"}},
	})

	if cross.RecommandationsStrategiques["recommandations"] != "Analyse non disponible" {
		t.Fatalf("expected placeholder recommendations, got %v", cross.RecommandationsStrategiques)
	}
	if cross.DocumentsAnalyses != 1 {
		t.Fatal("a failed recommendation call must not abort aggregation")
	}
}

func TestAggregateUnparseableRecommendationDegrades(t *testing.T) {
	agg := NewAggregator(&stubLLM{response: "du texte libre"}, discardLogger())

	cross := agg.Aggregate(context.Background(), nil)
	if cross.RecommandationsStrategiques["recommandations"] != "Analyse non disponible" {
		t.Fatalf("expected placeholder, got %v", cross.RecommandationsStrategiques)
	}
}
