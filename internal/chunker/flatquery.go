package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"codelore/internal/chunkmodel"
)

// parseFlatQuery extracts one chunk per capture the spec's query matches,
// keeping only the outermost node when captures overlap (a decorated
// Python function, for instance, matches both the decorator and the
// definition). It has no notion of nesting: every capture becomes a
// top-level chunk qualified by its bare name, since Go, Python, JavaScript,
// and TypeScript don't need the namespace/nested-type qualification chain
// spec §4.1 defines for C#.
func parseFlatQuery(spec *LanguageSpec, filePath string, src []byte, logger *slog.Logger) ([]chunkmodel.Chunk, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()
	logSyntaxErrors(logger, filePath, tree.RootNode())

	deps := extractImports(spec, tree.RootNode(), src)

	q, err := sitter.NewQuery([]byte(spec.Query), spec.Language)
	if err != nil {
		return nil, fmt.Errorf("compile query for %s: %w", spec.Name, err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	type capture struct {
		name      string
		kindTag   string
		startLine int
		endLine   int
		startByte uint32
		endByte   uint32
		pattern   uint16
	}
	var caps []capture
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var node *sitter.Node
		var name, kindTag string
		for _, c := range m.Captures {
			capName := q.CaptureNameForId(c.Index)
			switch {
			case capName == "name":
				name = c.Node.Content(src)
			case capName == "chunk":
				node = c.Node
			default:
				// Any other capture name identifies the kind directly,
				// e.g. @method, @class.
				kindTag = capName
				if node == nil {
					node = c.Node
				}
			}
		}
		if node == nil {
			continue
		}
		caps = append(caps, capture{
			name:      name,
			kindTag:   kindTag,
			startLine: int(node.StartPoint().Row) + 1,
			endLine:   int(node.EndPoint().Row) + 1,
			startByte: node.StartByte(),
			endByte:   node.EndByte(),
			pattern:   m.PatternIndex,
		})
	}

	// Outermost first; on an identical span the capture from the earlier
	// query pattern wins, so a specific pattern listed before a general one
	// decides the kind.
	sort.Slice(caps, func(i, j int) bool {
		if caps[i].startByte != caps[j].startByte {
			return caps[i].startByte < caps[j].startByte
		}
		li, lj := caps[i].endByte-caps[i].startByte, caps[j].endByte-caps[j].startByte
		if li != lj {
			return li > lj
		}
		return caps[i].pattern < caps[j].pattern
	})
	var deduped []capture
	var lastEnd uint32
	for _, c := range caps {
		if len(deduped) == 0 || c.startByte >= lastEnd {
			deduped = append(deduped, c)
			if c.endByte > lastEnd {
				lastEnd = c.endByte
			}
		}
	}

	lines := strings.Split(string(src), "\n")
	var chunks []chunkmodel.Chunk
	for _, c := range deduped {
		kind := spec.KindByCapture[c.kindTag]
		if kind == "" {
			kind = chunkmodel.KindFunction
		}
		name := c.name
		if name == "" {
			name = fmt.Sprintf("%s@%d", spec.Name, c.startLine)
		}
		content := joinLines(lines, c.startLine, c.endLine)
		id := chunkmodel.DeriveID(filePath, c.startLine, c.endLine, name)
		chunks = append(chunks, chunkmodel.Chunk{
			ID:            id,
			Kind:          kind,
			QualifiedName: name,
			FilePath:      filePath,
			StartLine:     c.startLine,
			EndLine:       c.endLine,
			Content:       content,
			Dependencies:  deps,
		})
	}
	return chunks, nil
}

func joinLines(lines []string, startLine, endLine int) string {
	start := startLine - 1
	end := endLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// extractImports runs spec's ImportQuery (if any) and returns the
// deduplicated, order-preserved list of imported names: each match's @name
// capture, or its whole @import capture when it has no @name, with
// surrounding whitespace and quotes trimmed.
func extractImports(spec *LanguageSpec, root *sitter.Node, src []byte) []string {
	if spec.ImportQuery == "" {
		return nil
	}
	q, err := sitter.NewQuery([]byte(spec.ImportQuery), spec.Language)
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
		var name, whole string
		for _, c := range m.Captures {
			switch q.CaptureNameForId(c.Index) {
			case "name":
				name = c.Node.Content(src)
			case "import":
				whole = c.Node.Content(src)
			}
		}
		text := name
		if text == "" {
			text = whole
		}
		text = strings.Trim(strings.TrimSpace(text), `"'`)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		deps = append(deps, text)
	}
	return deps
}
