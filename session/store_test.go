package session

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/marchepublic/ao-agent/crossdoc"
	"github.com/marchepublic/ao-agent/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), log.New(io.Discard, "", 0))
}

func TestNewRunIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewRunID()
		if !pattern.MatchString(id) {
			t.Fatalf("run id %q is not 8 lowercase hex characters", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Fatal("run ids should not collide systematically")
	}
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	runID := NewRunID()

	records := []DocumentRecord{
		{
			Name:     "01_reglement.pdf",
			Type:     "Règlement de consultation",
			Analysis: map[string]any{"criteres_selection": "60% technique, 40% prix"},
		},
	}
	cross := crossdoc.CrossAnalysis{
		RecommandationsStrategiques: map[string]any{"priorites": "pénalités & délais"},
		SyntheseContraintes: crossdoc.ConstraintSummary{
			Environnementales: map[string]any{},
			Logistiques:       map[string]any{},
			Techniques:        map[string]any{},
			Administratives:   map[string]any{},
		},
		DocumentsAnalyses: 1,
		TypesDocuments:    []string{"Règlement de Consultation"},
	}
	mem := memory.TechnicalMemory{
		TypeProjet: "restauration_facade",
		Sections:   map[string]string{"planning": "Phase 1."},
		Metadata:   memory.Metadata{DateGeneration: "2025-06-01 09:30:00", Version: "1.0", NombreSections: 9},
	}

	if err := store.Persist(runID, records, cross, mem, "Synthèse globale."); err != nil {
		t.Fatalf("persist: %v", err)
	}

	for _, name := range []string{"analyses.json", "cross_analysis.json", "technical_memory.json", "global_summary.txt"} {
		if _, err := os.Stat(filepath.Join(store.RunDir(runID), name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	// Non-ASCII must be stored literally, not \u-escaped.
	raw, err := os.ReadFile(filepath.Join(store.RunDir(runID), "cross_analysis.json"))
	if err != nil {
		t.Fatalf("read cross analysis: %v", err)
	}
	if !strings.Contains(string(raw), "pénalités & délais") {
		t.Fatalf("expected literal accents in persisted JSON:\n%s", raw)
	}

	// The on-disk layout is fixed: name/type/analysis keys.
	rawAnalyses, err := os.ReadFile(filepath.Join(store.RunDir(runID), "analyses.json"))
	if err != nil {
		t.Fatalf("read analyses: %v", err)
	}
	for _, key := range []string{`"name"`, `"type"`, `"analysis"`} {
		if !strings.Contains(string(rawAnalyses), key) {
			t.Fatalf("persisted analyses missing %s key:\n%s", key, rawAnalyses)
		}
	}

	loaded, err := store.LoadAnalyses(runID)
	if err != nil {
		t.Fatalf("load analyses: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "01_reglement.pdf" {
		t.Fatalf("unexpected analyses: %#v", loaded)
	}
	if loaded[0].Analysis["criteres_selection"] != "60% technique, 40% prix" {
		t.Fatalf("analysis payload lost: %#v", loaded[0].Analysis)
	}

	loadedCross, err := store.LoadCrossAnalysis(runID)
	if err != nil {
		t.Fatalf("load cross analysis: %v", err)
	}
	if loadedCross.DocumentsAnalyses != 1 {
		t.Fatalf("unexpected cross analysis: %#v", loadedCross)
	}

	loadedMem, err := store.LoadMemory(runID)
	if err != nil {
		t.Fatalf("load memory: %v", err)
	}
	if loadedMem.Metadata.Version != "1.0" || loadedMem.Sections["planning"] != "Phase 1." {
		t.Fatalf("unexpected memory: %#v", loadedMem)
	}

	summary, err := store.LoadSummary(runID)
	if err != nil {
		t.Fatalf("load summary: %v", err)
	}
	if summary != "Synthèse globale." {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestLoadAnalysesMissingRunYieldsEmptySlice(t *testing.T) {
	store := newTestStore(t)
	records, err := store.LoadAnalyses("deadbeef")
	if err != nil {
		t.Fatalf("missing analyses must not error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty slice, got %#v", records)
	}
}

func TestLoadAnalysesMalformedFileYieldsEmptySlice(t *testing.T) {
	store := newTestStore(t)
	dir := store.RunDir("cafe0000")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// An interrupted save leaves a truncated file behind; reload must treat
	// it like an empty run, not fail.
	if err := os.WriteFile(filepath.Join(dir, "analyses.json"), []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("write corrupt analyses: %v", err)
	}

	records, err := store.LoadAnalyses("cafe0000")
	if err != nil {
		t.Fatalf("malformed analyses must not error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty slice, got %#v", records)
	}
}

func TestLoadAnalysesDecodesStringEncodedPayload(t *testing.T) {
	store := newTestStore(t)
	dir := store.RunDir("abc12345")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	legacy := `[
		{"name": "cctp.pdf", "type": "CCTP",
		 "analysis": "{\"description_travaux\": \"ravalement\"}"},
		{"name": "ccap.pdf", "type": "CCAP",
		 "analysis": "pas du JSON"}
	]`
	if err := os.WriteFile(filepath.Join(dir, "analyses.json"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy analyses: %v", err)
	}

	records, err := store.LoadAnalyses("abc12345")
	if err != nil {
		t.Fatalf("load analyses: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Analysis["description_travaux"] != "ravalement" {
		t.Fatalf("string-encoded analysis not decoded: %#v", records[0].Analysis)
	}
	if records[1].Analysis == nil || len(records[1].Analysis) != 0 {
		t.Fatalf("undecodable analysis must degrade to empty map: %#v", records[1].Analysis)
	}
}

func TestRunsSortedByRecency(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"aaaa1111", "bbbb2222"} {
		if err := os.MkdirAll(store.RunDir(id), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(store.RunDir("aaaa1111"), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	runs, err := store.Runs()
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "bbbb2222" || runs[1].ID != "aaaa1111" {
		t.Fatalf("runs not sorted by recency: %#v", runs)
	}
}

func TestPurgeExpired(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"old00000", "new00000", "keep0000"} {
		if err := os.MkdirAll(store.RunDir(id), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	fourDays := time.Now().Add(-4 * 24 * time.Hour)
	twoDays := time.Now().Add(-2 * 24 * time.Hour)
	if err := os.Chtimes(store.RunDir("old00000"), fourDays, fourDays); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(store.RunDir("keep0000"), fourDays, fourDays); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(store.RunDir("new00000"), twoDays, twoDays); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	deleted := store.PurgeExpired(3*24*time.Hour, "keep0000")

	if len(deleted) != 1 || deleted[0] != "old00000" {
		t.Fatalf("expected only old00000 deleted, got %#v", deleted)
	}
	if _, err := os.Stat(store.RunDir("old00000")); !os.IsNotExist(err) {
		t.Fatal("expired run should be gone")
	}
	if _, err := os.Stat(store.RunDir("new00000")); err != nil {
		t.Fatal("recent run must survive the purge")
	}
	if _, err := os.Stat(store.RunDir("keep0000")); err != nil {
		t.Fatal("excluded run must survive the purge")
	}
}

func TestDeleteRun(t *testing.T) {
	store := newTestStore(t)
	if err := os.MkdirAll(store.RunDir("gone1234"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := store.DeleteRun("gone1234"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, err := os.Stat(store.RunDir("gone1234")); !os.IsNotExist(err) {
		t.Fatal("run directory should be removed")
	}
	if err := store.DeleteRun("gone1234"); err != nil {
		t.Fatalf("deleting a missing run must be idempotent: %v", err)
	}
}
