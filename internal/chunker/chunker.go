// Package chunker implements component C1: it turns one file's source text
// into the semantic Chunk units defined in package chunkmodel, using a
// grammar-aware strategy per language and a whole-file fallback for
// anything without one.
package chunker

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codelore/internal/chunkmodel"
)

// maxSyntaxDiagnostics caps the number of tree-sitter error nodes logged per
// file (spec §4.1: "logs up to N diagnostics"). The partial tree is still
// walked for whatever chunks it admits regardless of how many are logged.
const maxSyntaxDiagnostics = 5

// Chunker dispatches a file to the C# walker, a registered flat-query
// language spec, or the generic whole-file fallback. It emits one chunk per
// declaration (spec §4.1); oversized-content handling belongs to the text
// preparer (§4.2), not here.
type Chunker struct {
	registry *Registry
	logger   *slog.Logger
}

// New builds a Chunker over registry, which supplies the flat-query
// languages; New registers nothing itself. C# and the generic fallback need
// no registration — they're dispatched on directly in Parse. logger may be
// nil, in which case slog.Default() is used.
func New(registry *Registry, logger *slog.Logger) *Chunker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{registry: registry, logger: logger}
}

// logSyntaxErrors walks node's subtree and logs up to maxSyntaxDiagnostics
// tree-sitter error and missing-token nodes found for path. Syntax errors
// never abort parsing; the caller still returns whatever chunks the partial
// tree admits (spec §4.1).
func logSyntaxErrors(logger *slog.Logger, path string, node *sitter.Node) {
	if !node.HasError() {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logged := 0
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if logged >= maxSyntaxDiagnostics {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			logger.Warn("chunker: syntax error", "path", path, "line", int(n.StartPoint().Row)+1, "text", n.Type())
			logged++
		}
		for i := 0; i < int(n.ChildCount()) && logged < maxSyntaxDiagnostics; i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
}

// Parse extracts chunks from one file's source. A .cs file goes to the C#
// walker, a file whose extension has a registered LanguageSpec goes to that
// spec's flat query, and any other file becomes one KindFile chunk. When the
// C# walker or a flat query yields no chunks for a file with an extension,
// the whole file becomes one KindFile chunk instead.
func (c *Chunker) Parse(path string, src []byte) ([]chunkmodel.Chunk, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	var raw []chunkmodel.Chunk
	var err error

	switch spec := c.registry.Lookup(path); {
	case ext == "cs":
		raw, err = parseCSharp(path, src, c.logger)
	case spec != nil:
		raw, err = parseFlatQuery(spec, path, src, c.logger)
	default:
		raw, err = parseGeneric(path, src)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 && ext != "" {
		raw, err = parseGeneric(path, src)
		if err != nil {
			return nil, err
		}
	}

	var out []chunkmodel.Chunk
	for _, chunk := range raw {
		if verr := chunk.Validate(); verr != nil {
			return nil, fmt.Errorf("chunker: %w", verr)
		}
		out = append(out, chunk)
	}
	return out, nil
}

