// Package jobregistry implements component C8: the process-wide
// concurrency control plane tracking in-flight indexing jobs, one per
// repo name, and exposing start/status/cancel/delete/list.
package jobregistry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"codelore/internal/indexer"
)

// State is a Job's position in the absent -> indexing -> terminal state
// machine. There is no explicit "absent" value: an absent job simply has
// no entry in the registry's map.
type State string

const (
	StateIndexing  State = "indexing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

func (s State) terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Outcome is the result of a control-plane operation, distinguishing the
// handful of non-error outcomes spec §4.8 names from a genuine failure.
type Outcome int

const (
	Accepted Outcome = iota
	AlreadyRunning
	Ok
	NotFound
	Conflict
)

// Snapshot is what status/list expose for one repo name: the job's state
// and, while indexing, its live progress.
type Snapshot struct {
	RepoName string
	State    State
	Progress *indexer.Progress
	Summary  *indexer.Summary
}

// Indexer is the subset of package indexer's Indexer a job needs to run.
type Indexer interface {
	Index(ctx context.Context, url, repoName string, sink indexer.ProgressFunc) (indexer.Summary, error)
}

// Deleter is the subset of package vectorstore's Store a Registry needs to
// purge a repo's indexed points once its job record is deleted.
type Deleter interface {
	DeleteByFilter(ctx context.Context, filter map[string]string) error
}

// job is the registry's internal per-repo record. mu guards progress and
// state/summary, which the worker goroutine writes and status/list read
// concurrently.
type job struct {
	mu       sync.RWMutex
	state    State
	progress indexer.Progress
	summary  indexer.Summary

	cancel context.CancelFunc
}

func (j *job) snapshot(repoName string) Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	snap := Snapshot{RepoName: repoName, State: j.state}
	if j.state == StateIndexing {
		p := j.progress
		snap.Progress = &p
	}
	if j.state.terminal() {
		s := j.summary
		snap.Summary = &s
	}
	return snap
}

// Registry tracks one non-terminal-or-terminal job per repo name.
type Registry struct {
	mu      sync.RWMutex
	jobs    map[string]*job
	runner  Indexer
	deleter Deleter
	logger  *slog.Logger
}

// New builds a Registry that runs indexing jobs through runner and purges
// vector store points for a repo through deleter on Delete. deleter may be
// nil, in which case Delete only removes the terminal record.
func New(runner Indexer, deleter Deleter, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{jobs: make(map[string]*job), runner: runner, deleter: deleter, logger: logger}
}

// Start spawns a worker running Indexer.Index for (url, repoName). It is a
// no-op returning AlreadyRunning if a non-terminal job already exists for
// repoName; a fresh start is permitted from any terminal state or absence.
func (r *Registry) Start(url, repoName string) Outcome {
	r.mu.Lock()
	if existing, ok := r.jobs[repoName]; ok {
		existing.mu.RLock()
		nonTerminal := !existing.state.terminal()
		existing.mu.RUnlock()
		if nonTerminal {
			r.mu.Unlock()
			return AlreadyRunning
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{state: StateIndexing, cancel: cancel}
	r.jobs[repoName] = j
	r.mu.Unlock()

	go r.run(ctx, j, url, repoName)
	return Accepted
}

// run executes one indexing job to a terminal state, recovering from any
// panic in the underlying Indexer (spec §4.8: worker faults are caught and
// recorded as failed).
func (r *Registry) run(ctx context.Context, j *job, url, repoName string) {
	defer func() {
		if rec := recover(); rec != nil {
			j.mu.Lock()
			j.state = StateFailed
			j.summary.Errors = append(j.summary.Errors, fmt.Sprintf("panic: %v", rec))
			j.mu.Unlock()
			r.logger.Error("jobregistry: worker panicked", "repo_name", repoName, "panic", rec)
		}
	}()

	sink := func(p indexer.Progress) {
		j.mu.Lock()
		j.progress = p
		j.mu.Unlock()
	}

	summary, err := r.runner.Index(ctx, url, repoName, sink)

	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case err == nil:
		j.state = StateCompleted
		j.summary = summary
	case ctx.Err() != nil:
		j.state = StateCancelled
		j.summary = indexer.Summary{Errors: []string{err.Error()}}
	default:
		j.state = StateFailed
		j.summary = indexer.Summary{Errors: []string{err.Error()}}
	}
}

// Status returns repoName's current snapshot, or NotFound if no job (live
// or terminal) exists for it.
func (r *Registry) Status(repoName string) (Snapshot, Outcome) {
	r.mu.RLock()
	j, ok := r.jobs[repoName]
	r.mu.RUnlock()
	if !ok {
		return Snapshot{}, NotFound
	}
	return j.snapshot(repoName), Ok
}

// Cancel signals repoName's job context. Idempotent once signaled; a
// second call against an already-cancelled or already-terminal job still
// reports Ok as long as the entry exists.
func (r *Registry) Cancel(repoName string) Outcome {
	r.mu.RLock()
	j, ok := r.jobs[repoName]
	r.mu.RUnlock()
	if !ok {
		return NotFound
	}
	j.cancel()
	return Ok
}

// Delete removes repoName's terminal record and purges its vector store
// points. Forbidden while indexing. Purging is best-effort: if it fails,
// the failure is logged but the record removal still reports Ok, since the
// control-plane record is gone either way (spec §9's Open Question
// resolution: JobRegistry.delete calls VectorStore.DeleteByFilter after
// removing the terminal record).
func (r *Registry) Delete(ctx context.Context, repoName string) Outcome {
	r.mu.Lock()
	j, ok := r.jobs[repoName]
	if !ok {
		r.mu.Unlock()
		return NotFound
	}
	j.mu.RLock()
	indexing := j.state == StateIndexing
	j.mu.RUnlock()
	if indexing {
		r.mu.Unlock()
		return Conflict
	}
	delete(r.jobs, repoName)
	r.mu.Unlock()

	if r.deleter != nil {
		if err := r.deleter.DeleteByFilter(ctx, map[string]string{"repo_name": repoName}); err != nil {
			r.logger.Error("jobregistry: failed to purge vector store points", "repo_name", repoName, "error", err)
		}
	}
	return Ok
}

// List enumerates every known repo name with its current state.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	names := make([]string, 0, len(r.jobs))
	jobsByName := make(map[string]*job, len(r.jobs))
	for name, j := range r.jobs {
		names = append(names, name)
		jobsByName[name] = j
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(names))
	for _, name := range names {
		snapshots = append(snapshots, jobsByName[name].snapshot(name))
	}
	return snapshots
}
