package chunkmodel

import "testing"

func TestDeriveID_StableForSameInputs(t *testing.T) {
	a := DeriveID("a.go", 1, 10, "Widget.Describe")
	b := DeriveID("a.go", 1, 10, "Widget.Describe")
	if a != b {
		t.Fatalf("DeriveID not stable: %q != %q", a, b)
	}
}

func TestDeriveID_DiffersOnAnyInput(t *testing.T) {
	base := DeriveID("a.go", 1, 10, "Widget.Describe")
	variants := []string{
		DeriveID("b.go", 1, 10, "Widget.Describe"),
		DeriveID("a.go", 2, 10, "Widget.Describe"),
		DeriveID("a.go", 1, 11, "Widget.Describe"),
		DeriveID("a.go", 1, 10, "Widget.Other"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base id", i)
		}
	}
}

func TestSplitID_ZeroOrdinalReturnsBaseID(t *testing.T) {
	if got := SplitID("abc", 0); got != "abc" {
		t.Errorf("SplitID(_, 0) = %q, want base id unchanged", got)
	}
}

func TestSplitID_NonZeroOrdinalAppendsSuffix(t *testing.T) {
	if got := SplitID("abc", 3); got != "abc-3" {
		t.Errorf("SplitID(_, 3) = %q, want abc-3", got)
	}
}

func TestChunk_ValidateRejectsBadLineSpan(t *testing.T) {
	c := Chunk{QualifiedName: "X", Kind: KindMethod, StartLine: 5, EndLine: 3}
	if err := c.Validate(); err == nil {
		t.Error("expected error for end_line < start_line")
	}
}

func TestChunk_ValidateRejectsEmptyKindOrName(t *testing.T) {
	if err := (Chunk{QualifiedName: "X", StartLine: 1, EndLine: 1}).Validate(); err == nil {
		t.Error("expected error for empty kind")
	}
	if err := (Chunk{Kind: KindMethod, StartLine: 1, EndLine: 1}).Validate(); err == nil {
		t.Error("expected error for empty qualified name")
	}
}

func TestChunk_ValidateAcceptsWellFormedChunk(t *testing.T) {
	c := Chunk{QualifiedName: "Widget.Describe", Kind: KindMethod, StartLine: 1, EndLine: 3}
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPayload_ToMapOmitsEmptyOptionalFields(t *testing.T) {
	p := Payload{Kind: KindMethod, QualifiedName: "Widget.Describe", FilePath: "a.go", StartLine: 1, EndLine: 3, Content: "x", RepoName: "r"}
	m := p.ToMap()
	if _, ok := m["parent_qualified_name"]; ok {
		t.Error("expected parent_qualified_name to be omitted when empty")
	}
	if _, ok := m["namespace"]; ok {
		t.Error("expected namespace to be omitted when empty")
	}
	if m["kind"] != "method" || m["file_path"] != "a.go" {
		t.Errorf("unexpected required fields: %+v", m)
	}
}

func TestPayload_ToMapIncludesOptionalFieldsWhenSet(t *testing.T) {
	p := Payload{Kind: KindMethod, QualifiedName: "Widget.Describe", ParentQualifiedName: "Widget", Namespace: "N", FilePath: "a.go"}
	m := p.ToMap()
	if m["parent_qualified_name"] != "Widget" || m["namespace"] != "N" {
		t.Errorf("expected optional fields present: %+v", m)
	}
}

func TestPayloadFromMap_RoundTripsToMap(t *testing.T) {
	original := Payload{
		Kind: KindMethod, QualifiedName: "Widget.Describe", ParentQualifiedName: "Widget",
		Namespace: "N", FilePath: "a.go", StartLine: 1, EndLine: 3, Content: "body", RepoName: "r",
	}
	back, err := PayloadFromMap(original.ToMap())
	if err != nil {
		t.Fatalf("PayloadFromMap failed: %v", err)
	}
	if back != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", back, original)
	}
}

func TestPayloadFromMap_MissingRequiredKeyErrors(t *testing.T) {
	if _, err := PayloadFromMap(map[string]any{"qualified_name": "x", "file_path": "a.go"}); err == nil {
		t.Error("expected error for missing kind")
	}
}
