package chunker

import (
	"codelore/internal/chunkmodel"
)

// parseGeneric handles any allow-listed extension without a registered
// grammar or custom walker: the whole file becomes one KindFile chunk, so
// it's still searchable even though it can't be broken into declarations.
func parseGeneric(filePath string, src []byte) ([]chunkmodel.Chunk, error) {
	lines := 0
	if len(src) > 0 {
		lines = 1
		for _, b := range src {
			if b == '\n' {
				lines++
			}
		}
		// A final newline ends the last line rather than starting a new one.
		if src[len(src)-1] == '\n' {
			lines--
		}
	}
	if lines == 0 {
		return nil, nil
	}
	id := chunkmodel.DeriveID(filePath, 1, lines, filePath)
	return []chunkmodel.Chunk{{
		ID:            id,
		Kind:          chunkmodel.KindFile,
		QualifiedName: filePath,
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       lines,
		Content:       string(src),
	}}, nil
}
