package jobregistry

import (
	"context"
	"errors"
	"testing"
	"time"

	"codelore/internal/indexer"
)

type fakeIndexer struct {
	block   chan struct{}
	fail    error
	summary indexer.Summary
	sinkAt  []indexer.Progress
}

func (f *fakeIndexer) Index(ctx context.Context, url, repoName string, sink indexer.ProgressFunc) (indexer.Summary, error) {
	for _, p := range f.sinkAt {
		sink(p)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return indexer.Summary{}, ctx.Err()
		}
	}
	if f.fail != nil {
		return indexer.Summary{}, f.fail
	}
	return f.summary, nil
}

func waitForState(t *testing.T, r *Registry, repoName string, want State) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		snap, outcome := r.Status(repoName)
		if outcome == Ok && snap.State == want {
			return snap
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s to reach state %s (last=%v)", repoName, want, snap.State)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStart_CompletesToCompletedState(t *testing.T) {
	r := New(&fakeIndexer{summary: indexer.Summary{FilesProcessed: 3, ChunksIndexed: 9}}, nil, nil)
	if outcome := r.Start("https://x/repo.git", "repo"); outcome != Accepted {
		t.Fatalf("Start = %v, want Accepted", outcome)
	}
	snap := waitForState(t, r, "repo", StateCompleted)
	if snap.Summary == nil || snap.Summary.FilesProcessed != 3 {
		t.Errorf("summary = %+v, want FilesProcessed=3", snap.Summary)
	}
}

func TestStart_AgainstNonTerminalJobReturnsAlreadyRunning(t *testing.T) {
	block := make(chan struct{})
	r := New(&fakeIndexer{block: block}, nil, nil)
	r.Start("u", "repo")
	if outcome := r.Start("u", "repo"); outcome != AlreadyRunning {
		t.Errorf("second Start = %v, want AlreadyRunning", outcome)
	}
	close(block)
	waitForState(t, r, "repo", StateCompleted)
}

func TestStart_AfterTerminalAllowsFreshStart(t *testing.T) {
	r := New(&fakeIndexer{summary: indexer.Summary{}}, nil, nil)
	r.Start("u", "repo")
	waitForState(t, r, "repo", StateCompleted)
	if outcome := r.Start("u", "repo"); outcome != Accepted {
		t.Errorf("fresh Start after terminal = %v, want Accepted", outcome)
	}
}

func TestStatus_UnknownRepoIsNotFound(t *testing.T) {
	r := New(&fakeIndexer{}, nil, nil)
	if _, outcome := r.Status("nope"); outcome != NotFound {
		t.Errorf("Status = %v, want NotFound", outcome)
	}
}

func TestCancel_SignalsContextAndTransitionsToCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	r := New(&fakeIndexer{block: block}, nil, nil)
	r.Start("u", "repo")
	if outcome := r.Cancel("repo"); outcome != Ok {
		t.Fatalf("Cancel = %v, want Ok", outcome)
	}
	waitForState(t, r, "repo", StateCancelled)
}

func TestCancel_UnknownRepoIsNotFound(t *testing.T) {
	r := New(&fakeIndexer{}, nil, nil)
	if outcome := r.Cancel("nope"); outcome != NotFound {
		t.Errorf("Cancel = %v, want NotFound", outcome)
	}
}

func TestDelete_WhileIndexingIsConflict(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	r := New(&fakeIndexer{block: block}, nil, nil)
	r.Start("u", "repo")
	if outcome := r.Delete(context.Background(), "repo"); outcome != Conflict {
		t.Errorf("Delete while indexing = %v, want Conflict", outcome)
	}
}

func TestDelete_AfterTerminalRemovesRecord(t *testing.T) {
	r := New(&fakeIndexer{}, nil, nil)
	r.Start("u", "repo")
	waitForState(t, r, "repo", StateCompleted)
	if outcome := r.Delete(context.Background(), "repo"); outcome != Ok {
		t.Fatalf("Delete = %v, want Ok", outcome)
	}
	if _, outcome := r.Status("repo"); outcome != NotFound {
		t.Errorf("Status after delete = %v, want NotFound", outcome)
	}
}

type fakeDeleter struct {
	calledFilter map[string]string
}

func (f *fakeDeleter) DeleteByFilter(ctx context.Context, filter map[string]string) error {
	f.calledFilter = filter
	return nil
}

func TestDelete_PurgesVectorStorePointsForRepo(t *testing.T) {
	deleter := &fakeDeleter{}
	r := New(&fakeIndexer{}, deleter, nil)
	r.Start("u", "repo")
	waitForState(t, r, "repo", StateCompleted)
	if outcome := r.Delete(context.Background(), "repo"); outcome != Ok {
		t.Fatalf("Delete = %v, want Ok", outcome)
	}
	if deleter.calledFilter["repo_name"] != "repo" {
		t.Errorf("expected DeleteByFilter called with repo_name=repo, got %v", deleter.calledFilter)
	}
}

func TestDelete_WhileIndexingDoesNotPurge(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	deleter := &fakeDeleter{}
	r := New(&fakeIndexer{block: block}, deleter, nil)
	r.Start("u", "repo")
	if outcome := r.Delete(context.Background(), "repo"); outcome != Conflict {
		t.Errorf("Delete while indexing = %v, want Conflict", outcome)
	}
	if deleter.calledFilter != nil {
		t.Errorf("expected DeleteByFilter not called on conflict, got %v", deleter.calledFilter)
	}
}

func TestRun_IndexerErrorTransitionsToFailed(t *testing.T) {
	r := New(&fakeIndexer{fail: errors.New("boom")}, nil, nil)
	r.Start("u", "repo")
	snap := waitForState(t, r, "repo", StateFailed)
	if snap.Summary == nil || len(snap.Summary.Errors) == 0 {
		t.Errorf("expected failure summary to record the error, got %+v", snap.Summary)
	}
}

func TestList_EnumeratesAllRepos(t *testing.T) {
	r := New(&fakeIndexer{}, nil, nil)
	r.Start("u1", "repo1")
	r.Start("u2", "repo2")
	waitForState(t, r, "repo1", StateCompleted)
	waitForState(t, r, "repo2", StateCompleted)
	names := map[string]bool{}
	for _, snap := range r.List() {
		names[snap.RepoName] = true
	}
	if !names["repo1"] || !names["repo2"] {
		t.Errorf("List missed a repo: %v", names)
	}
}
