package index

import (
	"strings"
	"testing"
)

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText("", 1000, 200); len(got) != 0 {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
	if got := ChunkText("\n\n  \n\n", 1000, 200); len(got) != 0 {
		t.Fatalf("whitespace-only input must yield no chunks, got %d", len(got))
	}
}

func TestChunkTextSingleParagraph(t *testing.T) {
	got := ChunkText("Article 1 : objet du marché.", 1000, 200)
	if len(got) != 1 || got[0] != "Article 1 : objet du marché." {
		t.Fatalf("unexpected chunks: %#v", got)
	}
}

func TestChunkTextSplitsAtTarget(t *testing.T) {
	a := strings.Repeat("a", 400)
	b := strings.Repeat("b", 400)
	c := strings.Repeat("c", 400)
	got := ChunkText(a+"\n\n"+b+"\n\n"+c, 1000, 0)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0] != a+"\n\n"+b {
		t.Fatalf("first chunk wrong: %q", got[0][:20])
	}
	if got[1] != c {
		t.Fatalf("second chunk wrong: %q", got[1][:20])
	}
}

func TestChunkTextOverlapRepeatsLastParagraph(t *testing.T) {
	a := strings.Repeat("a", 600)
	b := strings.Repeat("b", 600)
	c := strings.Repeat("c", 600)
	got := ChunkText(a+"\n\n"+b+"\n\n"+c, 1000, 200)

	if len(got) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		prevTail := got[i-1][strings.LastIndex(got[i-1], "\n\n")+2:]
		if !strings.HasPrefix(got[i], prevTail) {
			t.Fatalf("chunk %d does not start with the previous tail paragraph", i)
		}
	}
}

func TestChunkTextNormalizesCRLF(t *testing.T) {
	got := ChunkText("premier\r\n\r\nsecond", 5, 0)
	if len(got) != 2 || got[0] != "premier" || got[1] != "second" {
		t.Fatalf("unexpected chunks: %#v", got)
	}
}
