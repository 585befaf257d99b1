package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"codelore/internal/chunkmodel"
	"codelore/internal/vectorstore"
)

type fakeFetcher struct {
	root  string
	files map[string][]byte
}

func (f *fakeFetcher) Fetch(ctx context.Context, url, repoName string) (string, error) {
	return f.root, nil
}

func (f *fakeFetcher) ListCodeFiles(localPath string) ([]string, error) {
	var paths []string
	for name := range f.files {
		paths = append(paths, filepath.Join(f.root, name))
	}
	return paths, nil
}

func (f *fakeFetcher) Read(filePath string) ([]byte, error) {
	rel, _ := filepath.Rel(f.root, filePath)
	rel = filepath.ToSlash(rel)
	data, ok := f.files[rel]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

type fakeChunker struct {
	chunksByFile map[string][]chunkmodel.Chunk
	failOn       map[string]error
}

func (c *fakeChunker) Parse(path string, src []byte) ([]chunkmodel.Chunk, error) {
	if err, ok := c.failOn[path]; ok {
		return nil, err
	}
	return c.chunksByFile[path], nil
}

type fakeEmbedder struct {
	dim   int
	calls int
	fail  bool
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

type fakeStore struct {
	upserted []vectorstore.Point
	fail     bool
}

func (s *fakeStore) UpsertBulk(ctx context.Context, points []vectorstore.Point) error {
	if s.fail {
		return errors.New("store unreachable")
	}
	s.upserted = append(s.upserted, points...)
	return nil
}

func oneChunk(path, name string) chunkmodel.Chunk {
	return chunkmodel.Chunk{
		ID:            chunkmodel.DeriveID(path, 1, 3, name),
		Kind:          chunkmodel.KindFunction,
		QualifiedName: name,
		FilePath:      path,
		StartLine:     1,
		EndLine:       3,
		Content:       "func " + name + "() {}",
	}
}

func TestIndex_ProducesSummaryAndUpsertsPoints(t *testing.T) {
	fetcher := &fakeFetcher{root: "/repo", files: map[string][]byte{
		"a.go": []byte("package a"),
		"b.go": []byte("package b"),
	}}
	chunker := &fakeChunker{chunksByFile: map[string][]chunkmodel.Chunk{
		"a.go": {oneChunk("a.go", "A")},
		"b.go": {oneChunk("b.go", "B")},
	}}
	embedder := &fakeEmbedder{dim: 4}
	store := &fakeStore{}

	idx := &Indexer{Fetcher: fetcher, Chunker: chunker, Embedder: embedder, Store: store}

	var snapshots []Progress
	summary, err := idx.Index(context.Background(), "https://example.com/repo.git", "repo", func(p Progress) {
		snapshots = append(snapshots, p)
	})
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if summary.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", summary.FilesProcessed)
	}
	if summary.ChunksIndexed != 2 {
		t.Errorf("ChunksIndexed = %d, want 2", summary.ChunksIndexed)
	}
	if len(store.upserted) != 2 {
		t.Errorf("upserted %d points, want 2", len(store.upserted))
	}
	if len(snapshots) == 0 {
		t.Fatal("expected at least one progress snapshot")
	}
	last := snapshots[len(snapshots)-1]
	if last.ProcessedFiles != 2 || last.TotalFiles != 2 {
		t.Errorf("final snapshot = %+v, want ProcessedFiles=2 TotalFiles=2", last)
	}
}

func TestIndex_ParseFailureIsRecordedNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{root: "/repo", files: map[string][]byte{
		"a.go": []byte("package a"),
		"b.go": []byte("package b"),
	}}
	chunker := &fakeChunker{
		chunksByFile: map[string][]chunkmodel.Chunk{
			"b.go": {oneChunk("b.go", "B")},
		},
		failOn: map[string]error{"a.go": errors.New("unexpected token")},
	}
	embedder := &fakeEmbedder{dim: 4}
	store := &fakeStore{}

	idx := &Indexer{Fetcher: fetcher, Chunker: chunker, Embedder: embedder, Store: store}
	summary, err := idx.Index(context.Background(), "u", "repo", nil)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if summary.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", summary.FilesProcessed)
	}
	if summary.ChunksIndexed != 1 {
		t.Errorf("ChunksIndexed = %d, want 1", summary.ChunksIndexed)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "a.go") {
		t.Errorf("Errors = %v, want one entry mentioning a.go", summary.Errors)
	}
	if len(store.upserted) != 1 {
		t.Errorf("upserted %d points, want 1 (only b.go's chunk)", len(store.upserted))
	}
}

func TestIndex_EmbeddingFailureAbortsWithBatchStartIndex(t *testing.T) {
	fetcher := &fakeFetcher{root: "/repo", files: map[string][]byte{"a.go": []byte("x")}}
	chunker := &fakeChunker{chunksByFile: map[string][]chunkmodel.Chunk{
		"a.go": {oneChunk("a.go", "A")},
	}}
	embedder := &fakeEmbedder{dim: 4, fail: true}
	store := &fakeStore{}

	idx := &Indexer{Fetcher: fetcher, Chunker: chunker, Embedder: embedder, Store: store}
	_, err := idx.Index(context.Background(), "u", "repo", nil)
	if err == nil {
		t.Fatal("expected error from failed embedding batch")
	}
	if !strings.Contains(err.Error(), "batch starting at 0") {
		t.Errorf("error %q does not name the failing batch's start index 0", err)
	}
}

func TestIndex_CancelledContextStopsAtFileBoundary(t *testing.T) {
	fetcher := &fakeFetcher{root: "/repo", files: map[string][]byte{"a.go": []byte("x")}}
	chunker := &fakeChunker{chunksByFile: map[string][]chunkmodel.Chunk{}}
	embedder := &fakeEmbedder{dim: 4}
	store := &fakeStore{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	idx := &Indexer{Fetcher: fetcher, Chunker: chunker, Embedder: embedder, Store: store}
	_, err := idx.Index(ctx, "u", "repo", nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
