package languages

import (
	"github.com/smacker/go-tree-sitter/javascript"

	"codelore/internal/chunker"
	"codelore/internal/chunkmodel"
)

// RegisterJavaScript adds the JavaScript language spec to r. Methods
// declared inside a class body aren't distinguished from free functions by
// this flat query — both need the surrounding class chunk for context, and
// the query has no notion of nesting to qualify them with a parent.
func RegisterJavaScript(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:     "javascript",
		Language: javascript.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @chunk @function
			(class_declaration name: (identifier) @name) @chunk @class
			(method_definition name: (property_identifier) @name) @chunk @method
			(export_statement (function_declaration name: (identifier) @name)) @chunk @function
			(export_statement (class_declaration name: (identifier) @name)) @chunk @class
			(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @chunk @function
		`,
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
		KindByCapture: map[string]chunkmodel.Kind{
			"function": chunkmodel.KindFunction,
			"class":    chunkmodel.KindClass,
			"method":   chunkmodel.KindMethod,
		},
		ImportQuery: `(import_statement source: (string) @name) @import`,
	})
}
