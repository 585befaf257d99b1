package textprep

import (
	"strings"
	"testing"

	"codelore/internal/chunkmodel"
)

func TestPrepare_SmallChunkYieldsOnePiece(t *testing.T) {
	chunk := chunkmodel.Chunk{
		ID:            "abc123",
		QualifiedName: "Widget.Describe",
		Namespace:     "N",
		Content:       "public string Describe() { return Name; }",
	}
	pieces := Prepare(chunk, Config{})
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].ID != chunk.ID {
		t.Errorf("id = %q, want %q", pieces[0].ID, chunk.ID)
	}
	want := "Widget.Describe\nN\npublic string Describe() { return Name; }"
	if pieces[0].Text != want {
		t.Errorf("text = %q, want %q", pieces[0].Text, want)
	}
}

func TestPrepare_OversizedContentSplitsAndKeepsSplitIDs(t *testing.T) {
	line := strings.Repeat("x", 100) + "\n"
	chunk := chunkmodel.Chunk{
		ID:            "deadbeef",
		QualifiedName: "Big.Method",
		Content:       strings.Repeat(line, 400), // ~40400 chars, well over maxChars
	}
	pieces := Prepare(chunk, Config{})
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces for oversized content, got %d", len(pieces))
	}
	if pieces[0].ID != chunk.ID {
		t.Errorf("first piece id = %q, want parent id %q", pieces[0].ID, chunk.ID)
	}
	if pieces[1].ID != "deadbeef-1" {
		t.Errorf("second piece id = %q, want deadbeef-1", pieces[1].ID)
	}
	for _, p := range pieces {
		if len(p.Text) > (Config{}).maxChars() {
			t.Errorf("piece %q exceeds maxChars: len=%d", p.ID, len(p.Text))
		}
	}
}

func TestPrepare_SingleOversizedLineSplitsOnSentences(t *testing.T) {
	sentence := strings.Repeat("word ", 200) + "."
	chunk := chunkmodel.Chunk{
		ID:            "id1",
		QualifiedName: "Q",
		Content:       strings.Repeat(sentence, 60), // one giant line, no newlines
	}
	pieces := Prepare(chunk, Config{})
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for _, p := range pieces {
		if len(p.Text) > (Config{}).maxChars() {
			t.Errorf("piece exceeds maxChars: len=%d", len(p.Text))
		}
	}
}

func TestPrepare_NamespaceOmittedWhenEmpty(t *testing.T) {
	chunk := chunkmodel.Chunk{ID: "x", QualifiedName: "Foo", Content: "body"}
	pieces := Prepare(chunk, Config{})
	if strings.Count(pieces[0].Text, "\n") != 1 {
		t.Errorf("expected exactly one newline (qualified_name/content) when namespace is empty, got text %q", pieces[0].Text)
	}
}
