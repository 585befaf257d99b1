// Package queryengine implements component C7: answering a question about
// an indexed repository by retrieving relevant chunks and asking a chat
// model to synthesize an answer grounded in them.
package queryengine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"codelore/internal/apperr"
	"codelore/internal/chatclient"
)

const systemDirective = "You are an expert code assistant. Answer strictly from the provided context. " +
	"Cite the file and line numbers you drew from. If the context does not contain enough information, " +
	"say so plainly instead of guessing."

const noContextAnswer = "I couldn't find anything in this repository's index relevant to that question."

const chatFailureAnswer = "I retrieved relevant context but couldn't reach the chat model to compose an answer. " +
	"Please try again."

const embedFailureAnswer = "I couldn't reach the embedding model to search this repository's index. " +
	"Please try again."

// Reference points a QueryResult's answer back to the source it was drawn
// from.
type Reference struct {
	FilePath  string
	StartLine int
	EndLine   int
	Score     float32
}

// QueryResult is the outcome of one Ask call.
type QueryResult struct {
	Answer     string
	References []Reference
	Duration   time.Duration
}

// Hit is one retrieved candidate: an embedding-space match plus its stored
// payload. Mirrors vectorstore.Hit without importing that package, so
// QueryEngine depends only on the narrow interfaces it needs.
type Hit struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// Searcher is the subset of package vectorstore's Store a QueryEngine
// needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]Hit, error)
}

// Embedder is the subset of package embedclient's Client a QueryEngine
// needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Chatter is the subset of package chatclient's Client a QueryEngine
// needs.
type Chatter interface {
	Complete(ctx context.Context, messages []chatclient.Message) (chatclient.Message, error)
}

// QueryEngine answers questions about an indexed repository.
type QueryEngine struct {
	Embedder Embedder
	Store    Searcher
	Chat     Chatter
}

// Ask embeds question, retrieves up to maxResults relevant chunks scoped
// to repoName, and asks the chat model to answer from them.
func (q *QueryEngine) Ask(ctx context.Context, question, repoName string, maxResults int) (QueryResult, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" || strings.TrimSpace(repoName) == "" || maxResults <= 0 {
		return QueryResult{}, fmt.Errorf("queryengine: %w: question and repo_name must be non-blank, max_results > 0", apperr.ErrInvalidArgument)
	}

	vectors, err := q.Embedder.Embed(ctx, []string{question})
	if err != nil {
		if errors.Is(err, apperr.ErrEmbedding) {
			return QueryResult{Answer: embedFailureAnswer, References: nil, Duration: time.Since(start)}, nil
		}
		return QueryResult{}, err
	}

	hits, err := q.Store.Search(ctx, vectors[0], maxResults, map[string]string{"repo_name": repoName})
	if err != nil {
		return QueryResult{}, err
	}

	if len(hits) == 0 {
		return QueryResult{Answer: noContextAnswer, References: nil, Duration: time.Since(start)}, nil
	}

	contextBlock := assembleContext(hits)
	messages := []chatclient.Message{
		{Role: chatclient.RoleSystem, Content: systemDirective},
		{Role: chatclient.RoleUser, Content: contextBlock + "\n\nQuestion: " + question},
	}

	reply, err := q.Chat.Complete(ctx, messages)
	if err != nil {
		return QueryResult{Answer: chatFailureAnswer, References: nil, Duration: time.Since(start)}, nil
	}

	return QueryResult{
		Answer:     reply.Content,
		References: extractReferences(hits),
		Duration:   time.Since(start),
	}, nil
}

func assembleContext(hits []Hit) string {
	var blocks []string
	for _, h := range hits {
		filePath, ok1 := h.Payload["file_path"].(string)
		startLine, ok2 := toInt(h.Payload["start_line"])
		endLine, ok3 := toInt(h.Payload["end_line"])
		content, ok4 := h.Payload["content"].(string)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("File: %s (lines %d-%d)\n%s\n", filePath, startLine, endLine, content))
	}
	return strings.Join(blocks, "\n---\n\n")
}

func extractReferences(hits []Hit) []Reference {
	var refs []Reference
	for _, h := range hits {
		filePath, ok1 := h.Payload["file_path"].(string)
		startLine, ok2 := toInt(h.Payload["start_line"])
		endLine, ok3 := toInt(h.Payload["end_line"])
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		refs = append(refs, Reference{FilePath: filePath, StartLine: startLine, EndLine: endLine, Score: h.Score})
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Score > refs[j].Score })
	return refs
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
