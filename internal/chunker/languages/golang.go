package languages

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"codelore/internal/chunker"
	"codelore/internal/chunkmodel"
)

// RegisterGo adds the Go language spec to r. Struct and interface type
// declarations get their own capture so they map to distinct kinds; any
// other type declaration (aliases, defined scalar types) falls back to
// KindTypeAlias.
func RegisterGo(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:     "go",
		Language: golang.GetLanguage(),
		Query: `
			(function_declaration name: (identifier) @name) @chunk @function
			(method_declaration name: (field_identifier) @name) @chunk @method
			(type_declaration (type_spec name: (type_identifier) @name type: (struct_type))) @chunk @struct
			(type_declaration (type_spec name: (type_identifier) @name type: (interface_type))) @chunk @interface
			(type_declaration (type_spec name: (type_identifier) @name)) @chunk @type_alias
		`,
		Extensions: []string{"go"},
		KindByCapture: map[string]chunkmodel.Kind{
			"function":   chunkmodel.KindFunction,
			"method":     chunkmodel.KindMethod,
			"struct":     chunkmodel.KindStruct,
			"interface":  chunkmodel.KindInterface,
			"type_alias": chunkmodel.KindTypeAlias,
		},
		ImportQuery: `(import_spec path: (interpreted_string_literal) @name) @import`,
	})
}

var _ *sitter.Language = golang.GetLanguage()
