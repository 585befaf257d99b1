// Package indexer implements component C6: it orchestrates RepoFetcher,
// Chunker, TextPreparer, EmbeddingClient, and VectorStore into one
// end-to-end indexing run, reporting progress as it goes.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"codelore/internal/apperr"
	"codelore/internal/chunkmodel"
	"codelore/internal/textprep"
	"codelore/internal/vectorstore"
)

// RepoFetcher is the subset of package repofetcher's Fetcher an Indexer
// needs.
type RepoFetcher interface {
	Fetch(ctx context.Context, url, repoName string) (string, error)
	ListCodeFiles(localPath string) ([]string, error)
	Read(filePath string) ([]byte, error)
}

// Chunker is the subset of package chunker's Chunker an Indexer needs.
type Chunker interface {
	Parse(path string, src []byte) ([]chunkmodel.Chunk, error)
}

// Embedder is the subset of package embedclient's Client an Indexer needs.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the subset of package vectorstore's Store an Indexer needs.
type Store interface {
	UpsertBulk(ctx context.Context, points []vectorstore.Point) error
}

// defaultProgressInterval is the file count between progress snapshots,
// other than the always-emitted first and last, used when Indexer.
// ProgressInterval is left unset.
const defaultProgressInterval = 10

// defaultEmbedBatch is the number of (chunk, text) pairs embedded and
// upserted in one slice, used when Indexer.EmbedBatch is left unset.
const defaultEmbedBatch = 50

// Progress is a point-in-time snapshot of an in-flight indexing run.
// Counters are non-decreasing within one job.
type Progress struct {
	TotalFiles     int
	ProcessedFiles int
	TotalChunks    int
	CurrentFile    string
	Errors         []string
}

// Summary is emitted once when a run reaches a terminal state.
type Summary struct {
	FilesProcessed int
	ChunksIndexed  int
	Duration       time.Duration
	Errors         []string
	// Overview is set only when Indexer.GenerateOverview is true and
	// synthesis succeeds. Empty otherwise.
	Overview string
}

// ProgressFunc receives Progress snapshots as an indexing run proceeds.
type ProgressFunc func(Progress)

// Indexer wires the components a single indexing run needs.
type Indexer struct {
	Fetcher  RepoFetcher
	Chunker  Chunker
	Embedder Embedder
	Store    Store
	Logger   *slog.Logger

	// Chat and GenerateOverview are optional. When GenerateOverview is
	// true and Chat is set, Index synthesizes a project overview after a
	// successful run and attaches it to the returned Summary. Off by
	// default: spec.md's Summary type doesn't name it.
	Chat             Chatter
	GenerateOverview bool

	// TextPrep, ProgressInterval, and EmbedBatch come from Config
	// (spec §6). Zero values fall back to package defaults.
	TextPrep         textprep.Config
	ProgressInterval int
	EmbedBatch       int
}

func (idx *Indexer) progressInterval() int {
	if idx.ProgressInterval > 0 {
		return idx.ProgressInterval
	}
	return defaultProgressInterval
}

func (idx *Indexer) embedBatch() int {
	if idx.EmbedBatch > 0 {
		return idx.EmbedBatch
	}
	return defaultEmbedBatch
}

func (idx *Indexer) log() *slog.Logger {
	if idx.Logger != nil {
		return idx.Logger
	}
	return slog.Default()
}

type pair struct {
	chunk chunkmodel.Chunk
	piece textprep.Piece
}

// Index runs Fetch -> enumerate -> chunk -> prepare -> embed -> upsert for
// one repository, calling sink at each stable progress point. Cancelling
// ctx stops the run at the next file or batch boundary.
func (idx *Indexer) Index(ctx context.Context, url, repoName string, sink ProgressFunc) (Summary, error) {
	start := time.Now()
	if sink == nil {
		sink = func(Progress) {}
	}
	var errs []string

	localPath, err := idx.Fetcher.Fetch(ctx, url, repoName)
	if err != nil {
		return Summary{}, err
	}
	sink(Progress{TotalFiles: 0})

	files, err := idx.Fetcher.ListCodeFiles(localPath)
	if err != nil {
		return Summary{}, err
	}
	sink(Progress{TotalFiles: len(files)})

	var pairs []pair
	var sources []fileSource
	processed := 0
	totalChunks := 0

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return Summary{}, fmt.Errorf("indexer: %w", apperr.ErrCancelled)
		}

		relPath, err := filepath.Rel(localPath, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		emit := func() {
			if processed%idx.progressInterval() == 0 || i == len(files)-1 {
				sink(Progress{
					TotalFiles:     len(files),
					ProcessedFiles: processed,
					TotalChunks:    totalChunks,
					CurrentFile:    relPath,
					Errors:         errs,
				})
			}
		}

		data, err := idx.Fetcher.Read(path)
		if err != nil {
			idx.log().Error("indexer: read failed", "repo_name", repoName, "path", relPath, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", relPath, err))
			processed++
			emit()
			continue
		}

		chunks, err := idx.Chunker.Parse(relPath, data)
		if err != nil {
			idx.log().Error("indexer: parse failed", "repo_name", repoName, "path", relPath, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", relPath, err))
			processed++
			emit()
			continue
		}
		if idx.GenerateOverview {
			sources = append(sources, fileSource{path: relPath, content: string(data)})
		}
		totalChunks += len(chunks)
		for _, c := range chunks {
			c.FilePath = relPath
			for _, piece := range textprep.Prepare(c, idx.TextPrep) {
				pairs = append(pairs, pair{chunk: c, piece: piece})
			}
		}

		processed++
		emit()
	}

	if err := idx.upsertAll(ctx, repoName, pairs); err != nil {
		return Summary{}, err
	}

	var overview string
	if idx.GenerateOverview && idx.Chat != nil {
		overview, err = synthesizeOverview(ctx, idx.Chat, sources)
		if err != nil {
			idx.log().Error("indexer: overview synthesis failed", "repo_name", repoName, "error", err)
			errs = append(errs, fmt.Sprintf("overview: %v", err))
		}
	}

	return Summary{
		FilesProcessed: processed,
		ChunksIndexed:  totalChunks,
		Duration:       time.Since(start),
		Errors:         errs,
		Overview:       overview,
	}, nil
}

// upsertAll embeds and upserts pairs in slices of idx.embedBatch(),
// sequentially (spec §5: batches processed sequentially to preserve
// backpressure against the embedding backend).
func (idx *Indexer) upsertAll(ctx context.Context, repoName string, pairs []pair) error {
	embedBatch := idx.embedBatch()
	for start := 0; start < len(pairs); start += embedBatch {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("indexer: %w", apperr.ErrCancelled)
		}
		end := start + embedBatch
		if end > len(pairs) {
			end = len(pairs)
		}
		slice := pairs[start:end]

		texts := make([]string, len(slice))
		for i, p := range slice {
			texts[i] = p.piece.Text
		}
		vectors, err := idx.Embedder.Embed(ctx, texts)
		if err != nil {
			idx.log().Error("indexer: embed batch failed", "repo_name", repoName, "batch_start", start, "error", err)
			return fmt.Errorf("indexer: batch starting at %d: %w", start, err)
		}

		points := make([]vectorstore.Point, len(slice))
		for i, p := range slice {
			payload := chunkmodel.Payload{
				Kind:                p.chunk.Kind,
				QualifiedName:       p.chunk.QualifiedName,
				ParentQualifiedName: p.chunk.ParentQualifiedName,
				Namespace:           p.chunk.Namespace,
				FilePath:            p.chunk.FilePath,
				StartLine:           p.chunk.StartLine,
				EndLine:             p.chunk.EndLine,
				Content:             p.chunk.Content,
				RepoName:            repoName,
			}
			points[i] = vectorstore.Point{ID: p.piece.ID, Vector: vectors[i], Payload: payload.ToMap()}
		}
		if err := idx.Store.UpsertBulk(ctx, points); err != nil {
			idx.log().Error("indexer: upsert batch failed", "repo_name", repoName, "batch_start", start, "error", err)
			return fmt.Errorf("indexer: batch starting at %d: %w", start, err)
		}
	}
	return nil
}
