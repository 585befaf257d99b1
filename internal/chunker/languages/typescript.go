package languages

import (
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"codelore/internal/chunker"
	"codelore/internal/chunkmodel"
)

// RegisterTypeScript adds the TypeScript language spec to r, extending the
// JavaScript captures with interface and type-alias declarations.
func RegisterTypeScript(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:     "typescript",
		Language: typescript.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @chunk @function
			(class_declaration name: (type_identifier) @name) @chunk @class
			(method_definition name: (property_identifier) @name) @chunk @method
			(export_statement (function_declaration name: (identifier) @name)) @chunk @function
			(export_statement (class_declaration name: (type_identifier) @name)) @chunk @class
			(lexical_declaration (variable_declarator name: (identifier) @name value: (arrow_function))) @chunk @function
			(interface_declaration name: (type_identifier) @name) @chunk @interface
			(type_alias_declaration name: (type_identifier) @name) @chunk @type_alias
		`,
		Extensions: []string{"ts", "tsx"},
		KindByCapture: map[string]chunkmodel.Kind{
			"function":   chunkmodel.KindFunction,
			"class":      chunkmodel.KindClass,
			"method":     chunkmodel.KindMethod,
			"interface":  chunkmodel.KindInterface,
			"type_alias": chunkmodel.KindTypeAlias,
		},
		ImportQuery: `(import_statement source: (string) @name) @import`,
	})
}
