package pipeline

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marchepublic/ao-agent/agents"
	"github.com/marchepublic/ao-agent/config"
	"github.com/marchepublic/ao-agent/crossdoc"
	"github.com/marchepublic/ao-agent/document"
	"github.com/marchepublic/ao-agent/extract"
	"github.com/marchepublic/ao-agent/knowledge"
	"github.com/marchepublic/ao-agent/llm"
	"github.com/marchepublic/ao-agent/memory"
	"github.com/marchepublic/ao-agent/session"
)

type stubLLM struct {
	response string
}

func (s *stubLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	return s.response, nil
}

type recordingIndexer struct {
	runID string
	docs  int
}

func (r *recordingIndexer) BuildRun(ctx context.Context, runID string, records []*document.Record) error {
	r.runID = runID
	r.docs = len(records)
	return nil
}

type recordingGraph struct {
	run knowledge.Run
}

func (r *recordingGraph) SyncRun(ctx context.Context, run knowledge.Run) error {
	r.run = run
	return nil
}

func newTestService(t *testing.T, indexer Indexer, graph GraphStore) (*Service, *session.Store) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	client := &stubLLM{response: `{"resume": "ok"}`}
	cfg := config.Config{
		DataDir:    filepath.Join(t.TempDir(), "uploads"),
		StorageDir: filepath.Join(t.TempDir(), "storage"),
	}
	store := session.NewStore(cfg.StorageDir, logger)
	svc := NewService(
		cfg,
		extract.New(logger),
		agents.NewOrchestrator(agents.NewAnalyzer(client, 4000), logger),
		crossdoc.NewAggregator(client, logger),
		memory.NewGenerator(client, logger),
		store,
		indexer,
		graph,
		logger,
	)
	return svc, store
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestAnalyzeFullRun(t *testing.T) {
	indexer := &recordingIndexer{}
	graph := &recordingGraph{}
	svc, store := newTestService(t, indexer, graph)

	paths := []string{
		writeFixture(t, "01_reglement.txt", "Critères de sélection et modalités."),
		writeFixture(t, "02_cctp.txt", "Description des travaux de façade."),
	}

	run, err := svc.Analyze(context.Background(), "", paths)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if len(run.ID) != 8 {
		t.Fatalf("unexpected run id: %q", run.ID)
	}
	if len(run.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(run.Records))
	}
	if run.Records[0].Type != document.Reglement || run.Records[1].Type != document.CCTP {
		t.Fatalf("classification wrong: %v / %v", run.Records[0].Type, run.Records[1].Type)
	}
	for _, rec := range run.Records {
		if len(rec.Analysis) == 0 {
			t.Fatalf("record %s has no analysis", rec.Name)
		}
	}

	if run.Cross.DocumentsAnalyses != 2 {
		t.Fatalf("cross analysis should count 2 documents, got %d", run.Cross.DocumentsAnalyses)
	}
	if run.Memory.Metadata.NombreSections != 9 {
		t.Fatalf("memory should carry 9 sections, got %d", run.Memory.Metadata.NombreSections)
	}
	if !strings.Contains(run.Summary, "**Règlement de consultation**") {
		t.Fatalf("summary missing règlement part:\n%s", run.Summary)
	}

	// Inputs staged under the run's upload directory.
	for _, name := range []string{"01_reglement.txt", "02_cctp.txt"} {
		if _, err := os.Stat(filepath.Join(svc.cfg.DataDir, run.ID, name)); err != nil {
			t.Fatalf("staged input %s missing: %v", name, err)
		}
	}

	// Artifacts persisted through the session store.
	records, err := store.LoadAnalyses(run.ID)
	if err != nil {
		t.Fatalf("load analyses: %v", err)
	}
	if len(records) != 2 || records[0].Type != document.Reglement.Label() {
		t.Fatalf("persisted analyses wrong: %#v", records)
	}
	if _, err := store.LoadCrossAnalysis(run.ID); err != nil {
		t.Fatalf("load cross analysis: %v", err)
	}
	if _, err := store.LoadMemory(run.ID); err != nil {
		t.Fatalf("load memory: %v", err)
	}

	if indexer.runID != run.ID || indexer.docs != 2 {
		t.Fatalf("indexer not called for run: %+v", indexer)
	}
	if graph.run.ID != run.ID || len(graph.run.Documents) != 2 {
		t.Fatalf("graph not synced for run: %+v", graph.run)
	}
	if len(graph.run.Categories) == 0 {
		t.Fatal("constraint categories should be linked in the graph")
	}
}

func TestAnalyzeWithoutSideChannels(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	path := writeFixture(t, "plan_niveau1.txt", "Plan du rez-de-chaussée.")

	run, err := svc.Analyze(context.Background(), "fixed123", []string{path})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if run.ID != "fixed123" {
		t.Fatalf("caller-provided run id must be kept, got %q", run.ID)
	}
}

func TestAnalyzeNoFiles(t *testing.T) {
	svc, _ := newTestService(t, nil, nil)
	if _, err := svc.Analyze(context.Background(), "", nil); err == nil {
		t.Fatal("expected an error for an empty file list")
	}
}

func TestGlobalSummaryNoAnalyses(t *testing.T) {
	records := []*document.Record{
		{Name: "plan.txt", Type: document.Plans},
	}
	if got := GlobalSummary(records); got != "Aucune analyse disponible" {
		t.Fatalf("unexpected summary: %q", got)
	}
}
