package document

import "testing"

func TestClassifyByFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     Type
	}{
		{"01_reglement_consultation.txt", Reglement},
		{"02_CCTP_techniques.txt", CCTP},
		{"03_CCAP_administratives.pdf", CCAP},
		{"04_DPGF_quantitatif.txt", DPGF},
		{"plan_masse.pdf", Plans},
		{"note_historique.pdf", Plans},
		{"divers.pdf", Autre},
	}

	for _, tc := range cases {
		if got := Classify(tc.filename, ""); got != tc.want {
			t.Fatalf("Classify(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}

func TestClassifyFilenameWinsOverContent(t *testing.T) {
	// Content matches the CCAP tier-2 set, but the filename says CCTP.
	got := Classify("dossier_CCTP.pdf", "pénalités de retard applicables")
	if got != CCTP {
		t.Fatalf("expected CCTP, got %v", got)
	}
}

func TestClassifyByContent(t *testing.T) {
	got := Classify("document_zz.pdf", "Les pénalités de retard sont fixées à 1/3000e.")
	if got != CCAP {
		t.Fatalf("expected CCAP from content, got %v", got)
	}

	got = Classify("document_zz.pdf", "Critères de sélection des candidatures")
	if got != Reglement {
		t.Fatalf("expected Reglement from content, got %v", got)
	}
}

func TestClassifyNothingMatches(t *testing.T) {
	if got := Classify("fiche.odt", "du texte sans rapport"); got != Autre {
		t.Fatalf("expected Autre, got %v", got)
	}
}

func TestClassifyEmptyContentSkipsTierTwo(t *testing.T) {
	if got := Classify("fiche.odt", ""); got != Autre {
		t.Fatalf("expected Autre for empty content, got %v", got)
	}
}

func TestLabels(t *testing.T) {
	if Reglement.Label() != "Règlement de consultation" {
		t.Fatalf("unexpected label: %q", Reglement.Label())
	}
	if CCTP.Label() != "Cahier des Clauses Techniques Particulières" {
		t.Fatalf("unexpected label: %q", CCTP.Label())
	}
	if Type(99).Label() != "Autre document" {
		t.Fatalf("unknown types must fall back to the Autre label")
	}
}
