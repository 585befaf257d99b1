package chunker

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"codelore/internal/chunkmodel"
)

// LanguageSpec defines a tree-sitter grammar and the flat capture query used
// to find top-level declarations, plus the kind each capture name maps to.
// Used for languages whose declarations don't need a name-stack walk to
// qualify (Go, Python, JavaScript, TypeScript). C# is qualified enough
// (namespaces, arbitrarily nested types) that it gets its own recursive
// walker (csharp.go) instead of a LanguageSpec.
type LanguageSpec struct {
	Name       string
	Language   *sitter.Language
	Query      string
	Extensions []string
	// KindByCapture maps a query capture name (e.g. "method") to the Chunk
	// kind it produces.
	KindByCapture map[string]chunkmodel.Kind
	// ImportQuery captures import/require statements as @import and, where
	// possible, the imported module or path as @name; each match's @name
	// text (or its @import text when there is no @name), trimmed of quotes,
	// becomes one Dependencies entry.
	ImportQuery string
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*LanguageSpec // extension (without dot) -> spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*LanguageSpec)}
}

// Register adds a language spec, indexed by each of its extensions.
func (r *Registry) Register(spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range spec.Extensions {
		r.specs[ext] = spec
	}
}

// Lookup returns the spec registered for path's extension, or nil if none.
func (r *Registry) Lookup(path string) *LanguageSpec {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.specs[ext]
}

// Extensions returns the set of every registered extension, C# included.
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.specs)+1)
	for ext := range r.specs {
		exts[ext] = true
	}
	exts["cs"] = true
	return exts
}
