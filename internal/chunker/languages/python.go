package languages

import (
	"github.com/smacker/go-tree-sitter/python"

	"codelore/internal/chunker"
	"codelore/internal/chunkmodel"
)

// RegisterPython adds the Python language spec to r. Decorated functions
// and classes match the same @function/@class captures as their
// undecorated forms, so a decorator doesn't change the emitted kind.
func RegisterPython(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:     "python",
		Language: python.GetLanguage(),
		Query: `
			(function_definition name: (identifier) @name) @chunk @function
			(class_definition name: (identifier) @name) @chunk @class
			(decorated_definition definition: (function_definition name: (identifier) @name)) @chunk @function
			(decorated_definition definition: (class_definition name: (identifier) @name)) @chunk @class
		`,
		Extensions: []string{"py", "pyi"},
		KindByCapture: map[string]chunkmodel.Kind{
			"function": chunkmodel.KindFunction,
			"class":    chunkmodel.KindClass,
		},
		ImportQuery: `
			(import_statement name: (dotted_name) @name) @import
			(import_from_statement module_name: (dotted_name) @name) @import
		`,
	})
}
