package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"codelore/internal/chunkmodel"
)

// csharpModifiers is the closed set spec §4.1 allows in a chunk's Modifiers
// string, in the order they should be preserved (source order, not this
// order — this set is only used for membership testing).
var csharpModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "abstract": true, "virtual": true, "override": true,
	"sealed": true, "readonly": true, "const": true,
}

var csharpTypeKinds = map[string]chunkmodel.Kind{
	"class_declaration":     chunkmodel.KindClass,
	"interface_declaration": chunkmodel.KindInterface,
	"struct_declaration":    chunkmodel.KindStruct,
	"record_declaration":    chunkmodel.KindRecord,
	"enum_declaration":      chunkmodel.KindEnum,
}

// csharpWalker recursively walks a C# syntax tree, threading namespace and
// enclosing-type qualification through nested scopes the way spec §4.1
// describes. Flat tree-sitter queries can't express this — nested type and
// member qualification depends on the full chain of enclosing declarations,
// not just the immediate parent.
type csharpWalker struct {
	filePath string
	src      []byte
	deps     []string
	chunks   []chunkmodel.Chunk
}

// parseCSharp is the Chunker entry point for .cs files.
func parseCSharp(filePath string, src []byte, logger *slog.Logger) ([]chunkmodel.Chunk, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()
	logSyntaxErrors(logger, filePath, tree.RootNode())

	w := &csharpWalker{filePath: filePath, src: src}
	w.deps = w.collectUsings(tree.RootNode())
	w.walkNamespaceBody(tree.RootNode(), "")
	return w.chunks, nil
}

func qualify(prefix, simple string) string {
	if prefix == "" {
		return simple
	}
	return prefix + "." + simple
}

// walkNamespaceBody processes the direct children of a compilation_unit or
// a namespace_declaration's body: nested namespaces recurse with an
// extended namespace prefix, type declarations become type chunks.
func (w *csharpWalker) walkNamespaceBody(node *sitter.Node, namespace string) {
	n := int(node.NamedChildCount())
	for i := 0; i < n; i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_declaration":
			name := w.textOfField(child, "name")
			body := child.ChildByFieldName("body")
			if body != nil {
				w.walkNamespaceBody(body, qualify(namespace, name))
			}
		case "file_scoped_namespace_declaration":
			name := w.textOfField(child, "name")
			namespace = qualify(namespace, name)
		case "class_declaration", "interface_declaration", "struct_declaration",
			"record_declaration", "enum_declaration":
			w.walkType(child, namespace, "")
		}
	}
}

// walkType emits a chunk for a type declaration and recurses into its
// members. parentTypeQName is "" for a namespace-scoped (or file-scoped,
// non-nested) type, and the enclosing type's qualified name for a nested
// type.
func (w *csharpWalker) walkType(node *sitter.Node, namespace, parentTypeQName string) {
	kind := csharpTypeKinds[node.Type()]
	simple := w.textOfField(node, "name")
	prefix := namespace
	if parentTypeQName != "" {
		prefix = parentTypeQName
	}
	qname := qualify(prefix, simple)

	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1

	chunk := chunkmodel.Chunk{
		ID:                  chunkmodel.DeriveID(w.filePath, startLine, endLine, qname),
		Kind:                kind,
		QualifiedName:       qname,
		ParentQualifiedName: parentTypeQName,
		Namespace:           namespace,
		FilePath:            w.filePath,
		StartLine:           startLine,
		EndLine:             endLine,
		Content:             node.Content(w.src),
		Dependencies:        w.deps,
		Modifiers:           w.extractModifiers(node),
	}

	body := node.ChildByFieldName("body")
	if kind == chunkmodel.KindEnum && body != nil {
		chunk.Attrs = map[string]string{"values": strings.Join(w.enumValues(body), ", ")}
	}
	w.chunks = append(w.chunks, chunk)

	if body == nil || kind == chunkmodel.KindEnum {
		return
	}
	w.walkTypeBody(body, namespace, qname)
}

func (w *csharpWalker) enumValues(body *sitter.Node) []string {
	var values []string
	n := int(body.NamedChildCount())
	for i := 0; i < n; i++ {
		child := body.NamedChild(i)
		if child.Type() != "enum_member_declaration" {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			values = append(values, name.Content(w.src))
		}
	}
	return values
}

// walkTypeBody dispatches each member declaration inside a type's body to
// its kind-specific emitter, and recurses for nested types.
func (w *csharpWalker) walkTypeBody(body *sitter.Node, namespace, typeQName string) {
	n := int(body.NamedChildCount())
	for i := 0; i < n; i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "class_declaration", "interface_declaration", "struct_declaration",
			"record_declaration", "enum_declaration":
			w.walkType(member, namespace, typeQName)
		case "method_declaration":
			w.emitMethod(member, typeQName)
		case "constructor_declaration":
			w.emitConstructor(member, typeQName)
		case "property_declaration":
			w.emitProperty(member, typeQName)
		case "field_declaration":
			w.emitFields(member, typeQName, chunkmodel.KindField)
		case "event_field_declaration":
			w.emitFields(member, typeQName, chunkmodel.KindEvent)
		case "event_declaration":
			w.emitNamed(member, typeQName, chunkmodel.KindEvent)
		case "indexer_declaration":
			w.emitIndexer(member, typeQName)
		}
	}
}

func (w *csharpWalker) emitMethod(node *sitter.Node, typeQName string) {
	attrs := map[string]string{}
	if params := node.ChildByFieldName("parameters"); params != nil {
		attrs["parameters"] = params.Content(w.src)
	}
	if ret := node.ChildByFieldName("type"); ret != nil {
		attrs["return_type"] = ret.Content(w.src)
	}
	w.emitMember(node, typeQName, chunkmodel.KindMethod, w.textOfField(node, "name"), attrs)
}

func (w *csharpWalker) emitConstructor(node *sitter.Node, typeQName string) {
	attrs := map[string]string{}
	if params := node.ChildByFieldName("parameters"); params != nil {
		attrs["parameters"] = params.Content(w.src)
	}
	w.emitMember(node, typeQName, chunkmodel.KindConstructor, ".ctor", attrs)
}

func (w *csharpWalker) emitProperty(node *sitter.Node, typeQName string) {
	attrs := map[string]string{}
	if t := node.ChildByFieldName("type"); t != nil {
		attrs["type"] = t.Content(w.src)
	}
	w.emitMember(node, typeQName, chunkmodel.KindProperty, w.textOfField(node, "name"), attrs)
}

func (w *csharpWalker) emitNamed(node *sitter.Node, typeQName string, kind chunkmodel.Kind) {
	w.emitMember(node, typeQName, kind, w.textOfField(node, "name"), nil)
}

func (w *csharpWalker) emitIndexer(node *sitter.Node, typeQName string) {
	attrs := map[string]string{}
	if params := node.ChildByFieldName("parameters"); params != nil {
		attrs["parameters"] = params.Content(w.src)
	}
	w.emitMember(node, typeQName, chunkmodel.KindIndexer, "this[]", attrs)
}

// emitFields handles field_declaration and event_field_declaration nodes,
// which may each declare several variables sharing one source span (spec
// §4.1: "A field declaration that declares multiple variables emits one
// chunk per variable, all sharing the field's source span").
func (w *csharpWalker) emitFields(node *sitter.Node, typeQName string, kind chunkmodel.Kind) {
	decl := node.ChildByFieldName("declaration")
	if decl == nil {
		decl = node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if c := node.NamedChild(i); c.Type() == "variable_declaration" {
				decl = c
				break
			}
		}
	}
	fieldType := ""
	if t := decl.ChildByFieldName("type"); t != nil {
		fieldType = t.Content(w.src)
	}
	names := w.variableNames(decl)
	if len(names) == 0 {
		return
	}
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	content := node.Content(w.src)
	modifiers := w.extractModifiers(node)
	for _, name := range names {
		qname := qualify(typeQName, name)
		var attrs map[string]string
		if fieldType != "" {
			attrs = map[string]string{"type": fieldType}
		}
		w.chunks = append(w.chunks, chunkmodel.Chunk{
			ID:                  chunkmodel.DeriveID(w.filePath, startLine, endLine, qname),
			Kind:                kind,
			QualifiedName:       qname,
			ParentQualifiedName: typeQName,
			FilePath:            w.filePath,
			StartLine:           startLine,
			EndLine:             endLine,
			Content:             content,
			Dependencies:        w.deps,
			Modifiers:           modifiers,
			Attrs:               attrs,
		})
	}
}

func (w *csharpWalker) variableNames(decl *sitter.Node) []string {
	var names []string
	n := int(decl.NamedChildCount())
	for i := 0; i < n; i++ {
		child := decl.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil && child.NamedChildCount() > 0 && child.NamedChild(0).Type() == "identifier" {
			name = child.NamedChild(0)
		}
		if name != nil {
			names = append(names, name.Content(w.src))
		}
	}
	return names
}

// emitMember builds and appends a single-name member chunk (method,
// constructor, property, indexer, or standalone event declaration).
func (w *csharpWalker) emitMember(node *sitter.Node, typeQName string, kind chunkmodel.Kind, simple string, attrs map[string]string) {
	qname := qualify(typeQName, simple)
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	w.chunks = append(w.chunks, chunkmodel.Chunk{
		ID:                  chunkmodel.DeriveID(w.filePath, startLine, endLine, qname),
		Kind:                kind,
		QualifiedName:       qname,
		ParentQualifiedName: typeQName,
		FilePath:            w.filePath,
		StartLine:           startLine,
		EndLine:             endLine,
		Content:             node.Content(w.src),
		Dependencies:        w.deps,
		Modifiers:           w.extractModifiers(node),
		Attrs:               attrs,
	})
}

// extractModifiers scans the declaration's direct children for keyword
// tokens in the closed modifier set, preserving source order.
func (w *csharpWalker) extractModifiers(node *sitter.Node) string {
	var mods []string
	n := int(node.ChildCount())
	for i := 0; i < n; i++ {
		child := node.Child(i)
		tok := child.Type()
		if tok == "modifier" {
			tok = child.Content(w.src)
		}
		if csharpModifiers[tok] {
			mods = append(mods, tok)
		}
	}
	return strings.Join(mods, " ")
}

func (w *csharpWalker) textOfField(node *sitter.Node, field string) string {
	f := node.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return f.Content(w.src)
}

// collectUsings returns the deduplicated, order-preserved list of names
// imported by using directives anywhere in the file.
func (w *csharpWalker) collectUsings(root *sitter.Node) []string {
	q, err := sitter.NewQuery([]byte(`(using_directive) @import`), csharp.GetLanguage())
	if err != nil {
		return nil
	}
	defer q.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	seen := make(map[string]bool)
	var deps []string
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			node := c.Node
			name := node.ChildByFieldName("name")
			text := ""
			if name != nil {
				text = name.Content(w.src)
			} else {
				text = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(node.Content(w.src)), "using "), ";")
			}
			text = strings.TrimSpace(text)
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			deps = append(deps, text)
		}
	}
	return deps
}
