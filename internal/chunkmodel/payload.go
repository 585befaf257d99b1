package chunkmodel

import "fmt"

// IndexPoint is the stored tuple (id, vector, payload) described in spec
// §3. Vector sits beside Payload rather than inside it, so callers can pass
// it straight to VectorStore.Upsert without copying.
type IndexPoint struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Payload carries the fields spec §3 lists under IndexPoint, minus the
// vector itself.
type Payload struct {
	Kind                Kind
	QualifiedName       string
	ParentQualifiedName string
	Namespace           string
	FilePath            string
	StartLine           int
	EndLine             int
	Content             string
	RepoName            string
}

// ToMap converts a Payload to the untyped map the vector-store wire
// boundary expects (spec §9 "Dynamic metadata payloads"). Empty optional
// fields are omitted rather than stored as "".
func (p Payload) ToMap() map[string]any {
	m := map[string]any{
		"kind":           string(p.Kind),
		"qualified_name": p.QualifiedName,
		"file_path":      p.FilePath,
		"start_line":     int64(p.StartLine),
		"end_line":       int64(p.EndLine),
		"content":        p.Content,
		"repo_name":      p.RepoName,
	}
	if p.ParentQualifiedName != "" {
		m["parent_qualified_name"] = p.ParentQualifiedName
	}
	if p.Namespace != "" {
		m["namespace"] = p.Namespace
	}
	return m
}

// PayloadFromMap converts the untyped wire payload back into a typed
// Payload. Missing required keys yield an error rather than a zero-valued
// field, since a malformed payload from the backend indicates a bug
// upstream, not a normal empty-optional case.
func PayloadFromMap(m map[string]any) (Payload, error) {
	str := func(key string) (string, bool) {
		v, ok := m[key]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}
	num := func(key string) (int, bool) {
		v, ok := m[key]
		if !ok {
			return 0, false
		}
		switch n := v.(type) {
		case int64:
			return int(n), true
		case int:
			return n, true
		case float64:
			return int(n), true
		default:
			return 0, false
		}
	}

	kind, ok := str("kind")
	if !ok {
		return Payload{}, fmt.Errorf("payload missing kind")
	}
	qname, ok := str("qualified_name")
	if !ok {
		return Payload{}, fmt.Errorf("payload missing qualified_name")
	}
	filePath, ok := str("file_path")
	if !ok {
		return Payload{}, fmt.Errorf("payload missing file_path")
	}
	content, _ := str("content")
	repoName, _ := str("repo_name")
	startLine, _ := num("start_line")
	endLine, _ := num("end_line")
	parent, _ := str("parent_qualified_name")
	namespace, _ := str("namespace")

	return Payload{
		Kind:                Kind(kind),
		QualifiedName:       qname,
		ParentQualifiedName: parent,
		Namespace:           namespace,
		FilePath:            filePath,
		StartLine:           startLine,
		EndLine:             endLine,
		Content:             content,
		RepoName:            repoName,
	}, nil
}
