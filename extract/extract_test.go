package extract

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestExtractor() *Extractor {
	return New(log.New(io.Discard, "", 0))
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"doc.PDF":    FormatPDF,
		"dpgf.csv":   FormatCSV,
		"notes.txt":  FormatText,
		"plan.dwg":   FormatUnknown,
		"reglement":  FormatUnknown,
		"readme.md":  FormatText,
		"quant.xlsx": FormatUnknown,
	}
	for path, want := range cases {
		if got := DetectFormat(path); got != want {
			t.Fatalf("DetectFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01_reglement.txt")
	if err := os.WriteFile(path, []byte("Critères de sélection\r\nModalités   \r\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got := newTestExtractor().Extract(path)
	if got != "Critères de sélection\nModalités\n" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtractCSVRowsCarryHeaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "04_dpgf.csv")
	content := "Lot,Quantité,Prix\nMaçonnerie,120,4500\nCouverture,80,3200\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got := newTestExtractor().Extract(path)
	if !strings.Contains(got, "Ligne 1\nLot: Maçonnerie\nQuantité: 120\nPrix: 4500") {
		t.Fatalf("row formatting wrong:\n%s", got)
	}
	if !strings.Contains(got, "Ligne 2\nLot: Couverture") {
		t.Fatalf("second row missing:\n%s", got)
	}
}

func TestExtractMissingFileReturnsEmpty(t *testing.T) {
	if got := newTestExtractor().Extract("/nonexistent/file.txt"); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestExtractCorruptPDFReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if got := newTestExtractor().Extract(path); got != "" {
		t.Fatalf("expected empty text for corrupt pdf, got %q", got)
	}
}
