// Package apperr defines the error kinds shared across the indexing and
// query pipelines so callers can classify failures with errors.Is/As
// instead of matching on message text.
package apperr

import "errors"

// Sentinel kinds. Concrete errors returned by components wrap one of these
// with fmt.Errorf("...: %w", ErrX) so callers can test with errors.Is.
var (
	// ErrInvalidArgument marks a precondition violation caught before any
	// I/O — never retried, always surfaced to the caller.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrParse marks a Chunker failure confined to a single file; it is
	// recorded in progress.errors and never fails the enclosing job.
	ErrParse = errors.New("parse error")

	// ErrFetch marks a RepoFetcher failure; fatal to the indexing job.
	ErrFetch = errors.New("fetch error")

	// ErrEmbedding marks an EmbeddingClient failure that survived retries.
	ErrEmbedding = errors.New("embedding error")

	// ErrVectorStore marks a VectorStore failure that survived retries (on
	// upsert) or a search failure.
	ErrVectorStore = errors.New("vector store error")

	// ErrCancelled marks context cancellation; propagates unmodified.
	ErrCancelled = errors.New("cancelled")

	// ErrInternal marks a worker fault caught at the job root.
	ErrInternal = errors.New("internal error")
)

// InvalidVector reports a vector whose dimension does not match the store's
// configured dimension. Returned without round-tripping to the backend.
type InvalidVector struct {
	Got, Want int
}

func (e *InvalidVector) Error() string {
	return "invalid vector dimension"
}

func (e *InvalidVector) Unwrap() error { return ErrInvalidArgument }
