package chunker

import (
	"testing"

	"codelore/internal/chunkmodel"
)

func chunkByName(t *testing.T, chunks []chunkmodel.Chunk, qname string) chunkmodel.Chunk {
	t.Helper()
	for _, c := range chunks {
		if c.QualifiedName == qname {
			return c
		}
	}
	t.Fatalf("no chunk named %q among %v", qname, csharpTestNames(chunks))
	return chunkmodel.Chunk{}
}

func csharpTestNames(chunks []chunkmodel.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.QualifiedName
	}
	return out
}

func TestParseCSharp_NamespaceQualifiesTopLevelType(t *testing.T) {
	src := []byte(`namespace N
{
	public class C
	{
		public void M() { }
	}
}
`)
	chunks, err := parseCSharp("C.cs", src, nil)
	if err != nil {
		t.Fatalf("parseCSharp failed: %v", err)
	}

	class := chunkByName(t, chunks, "N.C")
	if class.Kind != chunkmodel.KindClass {
		t.Errorf("kind = %s, want class", class.Kind)
	}
	if class.ParentQualifiedName != "" {
		t.Errorf("top-level type parent = %q, want empty", class.ParentQualifiedName)
	}
	if class.Namespace != "N" {
		t.Errorf("namespace = %q, want N", class.Namespace)
	}

	method := chunkByName(t, chunks, "N.C.M")
	if method.ParentQualifiedName != "N.C" {
		t.Errorf("method parent = %q, want N.C", method.ParentQualifiedName)
	}
}

func TestParseCSharp_NestedTypeChainsThroughEnclosingType(t *testing.T) {
	src := []byte(`public class Outer
{
	public class Inner
	{
		public void NM() { }
	}
}
`)
	chunks, err := parseCSharp("Outer.cs", src, nil)
	if err != nil {
		t.Fatalf("parseCSharp failed: %v", err)
	}

	outer := chunkByName(t, chunks, "Outer")
	if outer.ParentQualifiedName != "" {
		t.Errorf("Outer parent = %q, want empty", outer.ParentQualifiedName)
	}

	inner := chunkByName(t, chunks, "Outer.Inner")
	if inner.ParentQualifiedName != "Outer" {
		t.Errorf("Inner parent = %q, want Outer", inner.ParentQualifiedName)
	}

	method := chunkByName(t, chunks, "Outer.Inner.NM")
	if method.ParentQualifiedName != "Outer.Inner" {
		t.Errorf("NM parent = %q, want Outer.Inner", method.ParentQualifiedName)
	}
}

func TestParseCSharp_ConstructorIndexerAndFieldSplit(t *testing.T) {
	src := []byte(`public class Widget
{
	private readonly int x, y;

	public Widget(int value) { x = value; }

	public int this[int i] { get { return x; } }
}
`)
	chunks, err := parseCSharp("Widget.cs", src, nil)
	if err != nil {
		t.Fatalf("parseCSharp failed: %v", err)
	}

	ctor := chunkByName(t, chunks, "Widget..ctor")
	if ctor.Kind != chunkmodel.KindConstructor {
		t.Errorf("ctor kind = %s, want constructor", ctor.Kind)
	}

	indexer := chunkByName(t, chunks, "Widget.this[]")
	if indexer.Kind != chunkmodel.KindIndexer {
		t.Errorf("indexer kind = %s, want indexer", indexer.Kind)
	}

	x := chunkByName(t, chunks, "Widget.x")
	y := chunkByName(t, chunks, "Widget.y")
	if x.Kind != chunkmodel.KindField || y.Kind != chunkmodel.KindField {
		t.Errorf("expected both x and y to be field chunks")
	}
	if x.StartLine != y.StartLine || x.EndLine != y.EndLine {
		t.Errorf("split field chunks should share a span: x=[%d,%d] y=[%d,%d]", x.StartLine, x.EndLine, y.StartLine, y.EndLine)
	}
	if x.Modifiers == "" || x.Modifiers != y.Modifiers {
		t.Errorf("split field chunks should share modifiers, got x=%q y=%q", x.Modifiers, y.Modifiers)
	}
}

func TestParseCSharp_EnumValuesAsAttrs(t *testing.T) {
	src := []byte(`public enum Color
{
	Red,
	Green,
	Blue
}
`)
	chunks, err := parseCSharp("Color.cs", src, nil)
	if err != nil {
		t.Fatalf("parseCSharp failed: %v", err)
	}
	color := chunkByName(t, chunks, "Color")
	if color.Kind != chunkmodel.KindEnum {
		t.Fatalf("kind = %s, want enum", color.Kind)
	}
	if color.Attrs["values"] != "Red, Green, Blue" {
		t.Errorf("values attr = %q, want %q", color.Attrs["values"], "Red, Green, Blue")
	}
}

func TestParseCSharp_UsingDirectivesBecomeDependencies(t *testing.T) {
	src := []byte(`using System;
using System.Collections.Generic;

namespace N
{
	public class C { }
}
`)
	chunks, err := parseCSharp("C.cs", src, nil)
	if err != nil {
		t.Fatalf("parseCSharp failed: %v", err)
	}
	class := chunkByName(t, chunks, "N.C")
	want := []string{"System", "System.Collections.Generic"}
	if len(class.Dependencies) != len(want) {
		t.Fatalf("dependencies = %v, want %v", class.Dependencies, want)
	}
	for i, dep := range want {
		if class.Dependencies[i] != dep {
			t.Errorf("dependencies[%d] = %q, want %q", i, class.Dependencies[i], dep)
		}
	}
}
