package analysis

import "testing"

func TestDecodeParsedVariant(t *testing.T) {
	res := Decode(`{"criteres": {"technique": "60%"}}`, "analyse")
	if res.Fallback {
		t.Fatal("expected parsed variant")
	}
	if _, ok := res.Fields["criteres"]; !ok {
		t.Fatalf("missing decoded key, got %v", res.Fields)
	}
}

func TestDecodeStripsCodeFence(t *testing.T) {
	res := Decode("```json\n{\"delais\": \"3 mois\"}\n```", "analyse")
	if res.Fallback {
		t.Fatal("expected parsed variant after fence stripping")
	}
	if res.Fields["delais"] != "3 mois" {
		t.Fatalf("unexpected fields: %v", res.Fields)
	}
}

func TestDecodeFallbackVariant(t *testing.T) {
	raw := "Voici l'analyse du document en prose libre."
	res := Decode(raw, "analyse")
	if !res.Fallback {
		t.Fatal("expected fallback variant")
	}
	if res.Fields["analyse"] != raw {
		t.Fatalf("raw text not preserved: %v", res.Fields)
	}
}

func TestDecodeRejectsJSONArray(t *testing.T) {
	// Top-level arrays are not a mapping; they take the fallback path.
	res := Decode(`[1, 2, 3]`, "analyse")
	if !res.Fallback {
		t.Fatal("expected fallback for non-object JSON")
	}
}

func TestEmpty(t *testing.T) {
	if !Empty(nil) || !Empty("") || !Empty(map[string]any{}) {
		t.Fatal("nil, empty string and empty map must count as empty")
	}
	if Empty("texte") || Empty(map[string]any{"k": "v"}) {
		t.Fatal("non-empty values must not count as empty")
	}
}
