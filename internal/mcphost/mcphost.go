// Package mcphost exposes JobRegistry and QueryEngine as MCP tools so an
// editor or agent can drive indexing and ask questions without a bespoke
// client.
package mcphost

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"codelore/internal/jobregistry"
	"codelore/internal/queryengine"
)

// Registry is the subset of package jobregistry's Registry a Host needs.
type Registry interface {
	Start(url, repoName string) jobregistry.Outcome
	Status(repoName string) (jobregistry.Snapshot, jobregistry.Outcome)
	Cancel(repoName string) jobregistry.Outcome
	Delete(ctx context.Context, repoName string) jobregistry.Outcome
	List() []jobregistry.Snapshot
}

// Asker is the subset of package queryengine's QueryEngine a Host needs.
type Asker interface {
	Ask(ctx context.Context, question, repoName string, maxResults int) (queryengine.QueryResult, error)
}

// Host wires the control-plane and query surfaces to MCP tool handlers.
type Host struct {
	Registry Registry
	Query    Asker
}

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

var mutatingAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(false),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(true),
}

// NewServer builds the MCP server with every tool registered against h.
func (h *Host) NewServer() *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("codelore", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(indexRepositoryTool(), h.handleIndexRepository)
	s.AddTool(getIndexStatusTool(), h.handleGetIndexStatus)
	s.AddTool(cancelIndexTool(), h.handleCancelIndex)
	s.AddTool(deleteRepoTool(), h.handleDeleteRepo)
	s.AddTool(listReposTool(), h.handleListRepos)
	s.AddTool(askQuestionTool(), h.handleAskQuestion)

	return s
}

// Serve runs the MCP server over stdio until the process exits.
func (h *Host) Serve() error {
	return mcpserver.ServeStdio(h.NewServer())
}

// --- Tool schema builders ---

func indexRepositoryTool() mcp.Tool {
	return mcp.NewTool("index_repository",
		mcp.WithDescription("Clone or update a repository and index its source into the vector store. Returns immediately; poll get_index_status for progress."),
		mcp.WithToolAnnotation(mutatingAnnotation),
		mcp.WithString("repo_url", mcp.Required(), mcp.Description("Git URL to clone or pull")),
		mcp.WithString("repo_name", mcp.Required(), mcp.Description("Unique name to index the repository under")),
	)
}

func getIndexStatusTool() mcp.Tool {
	return mcp.NewTool("get_index_status",
		mcp.WithDescription("Get the current state and, if indexing, live progress of a repository's index job."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo_name", mcp.Required(), mcp.Description("Repository name passed to index_repository")),
	)
}

func cancelIndexTool() mcp.Tool {
	return mcp.NewTool("cancel_index",
		mcp.WithDescription("Cancel a repository's in-flight index job."),
		mcp.WithToolAnnotation(mutatingAnnotation),
		mcp.WithString("repo_name", mcp.Required(), mcp.Description("Repository name to cancel")),
	)
}

func deleteRepoTool() mcp.Tool {
	return mcp.NewTool("delete_repo",
		mcp.WithDescription("Remove a repository's terminal job record. Forbidden while indexing."),
		mcp.WithToolAnnotation(mutatingAnnotation),
		mcp.WithString("repo_name", mcp.Required(), mcp.Description("Repository name to delete")),
	)
}

func listReposTool() mcp.Tool {
	return mcp.NewTool("list_repos",
		mcp.WithDescription("List every known repository name with its current index state."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func askQuestionTool() mcp.Tool {
	return mcp.NewTool("ask_question",
		mcp.WithDescription("Ask a natural-language question about an indexed repository; answers cite file and line ranges."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo_name", mcp.Required(), mcp.Description("Repository name to search within")),
		mcp.WithString("question", mcp.Required(), mcp.Description("Natural-language question about the codebase")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of context chunks to retrieve (default 5)")),
	)
}

// --- Handlers ---

func (h *Host) handleIndexRepository(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoURL := req.GetString("repo_url", "")
	repoName := req.GetString("repo_name", "")
	if repoURL == "" || repoName == "" {
		return mcp.NewToolResultError("repo_url and repo_name are required"), nil
	}

	switch h.Registry.Start(repoURL, repoName) {
	case jobregistry.Accepted:
		return mcp.NewToolResultText(fmt.Sprintf("Indexing started for %q.", repoName)), nil
	case jobregistry.AlreadyRunning:
		return mcp.NewToolResultError(fmt.Sprintf("%q is already indexing", repoName)), nil
	default:
		return mcp.NewToolResultError("unexpected outcome starting index job"), nil
	}
}

func (h *Host) handleGetIndexStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoName := req.GetString("repo_name", "")
	if repoName == "" {
		return mcp.NewToolResultError("repo_name is required"), nil
	}

	snap, outcome := h.Registry.Status(repoName)
	if outcome == jobregistry.NotFound {
		return mcp.NewToolResultError(fmt.Sprintf("no job found for %q", repoName)), nil
	}
	return mcp.NewToolResultText(formatSnapshot(snap)), nil
}

func (h *Host) handleCancelIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoName := req.GetString("repo_name", "")
	if repoName == "" {
		return mcp.NewToolResultError("repo_name is required"), nil
	}

	switch h.Registry.Cancel(repoName) {
	case jobregistry.Ok:
		return mcp.NewToolResultText(fmt.Sprintf("Cancellation requested for %q.", repoName)), nil
	case jobregistry.NotFound:
		return mcp.NewToolResultError(fmt.Sprintf("no job found for %q", repoName)), nil
	default:
		return mcp.NewToolResultError("unexpected outcome cancelling index job"), nil
	}
}

func (h *Host) handleDeleteRepo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoName := req.GetString("repo_name", "")
	if repoName == "" {
		return mcp.NewToolResultError("repo_name is required"), nil
	}

	switch h.Registry.Delete(ctx, repoName) {
	case jobregistry.Ok:
		return mcp.NewToolResultText(fmt.Sprintf("Deleted job record for %q.", repoName)), nil
	case jobregistry.Conflict:
		return mcp.NewToolResultError(fmt.Sprintf("%q is still indexing; cancel it first", repoName)), nil
	case jobregistry.NotFound:
		return mcp.NewToolResultError(fmt.Sprintf("no job found for %q", repoName)), nil
	default:
		return mcp.NewToolResultError("unexpected outcome deleting job"), nil
	}
}

func (h *Host) handleListRepos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshots := h.Registry.List()
	if len(snapshots) == 0 {
		return mcp.NewToolResultText("No repositories indexed yet."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Repositories (%d)\n\n", len(snapshots))
	for _, snap := range snapshots {
		fmt.Fprintf(&sb, "- **%s** — %s\n", snap.RepoName, snap.State)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (h *Host) handleAskQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoName := req.GetString("repo_name", "")
	question := req.GetString("question", "")
	if repoName == "" || question == "" {
		return mcp.NewToolResultError("repo_name and question are required"), nil
	}
	maxResults := req.GetInt("max_results", 5)
	if maxResults <= 0 {
		maxResults = 5
	}

	result, err := h.Query.Ask(ctx, question, repoName, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatQueryResult(result)), nil
}

// --- Formatting helpers ---

func formatSnapshot(snap jobregistry.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s: %s\n\n", snap.RepoName, snap.State)
	if snap.Progress != nil {
		p := snap.Progress
		fmt.Fprintf(&sb, "Processed %d/%d files, %d chunks indexed. Current file: %s\n",
			p.ProcessedFiles, p.TotalFiles, p.TotalChunks, p.CurrentFile)
		if len(p.Errors) > 0 {
			fmt.Fprintf(&sb, "Errors so far: %d\n", len(p.Errors))
		}
	}
	if snap.Summary != nil {
		s := snap.Summary
		fmt.Fprintf(&sb, "Files processed: %d, chunks indexed: %d, duration: %s\n",
			s.FilesProcessed, s.ChunksIndexed, s.Duration)
		if len(s.Errors) > 0 {
			fmt.Fprintf(&sb, "Errors:\n")
			for _, e := range s.Errors {
				fmt.Fprintf(&sb, "- %s\n", e)
			}
		}
		if s.Overview != "" {
			fmt.Fprintf(&sb, "\n### Overview\n\n%s\n", s.Overview)
		}
	}
	return sb.String()
}

func formatQueryResult(result queryengine.QueryResult) string {
	var sb strings.Builder
	sb.WriteString(result.Answer)
	sb.WriteString("\n")
	if len(result.References) > 0 {
		sb.WriteString("\n### References\n\n")
		for _, ref := range result.References {
			fmt.Fprintf(&sb, "- %s (lines %d-%d), score %.3f\n", ref.FilePath, ref.StartLine, ref.EndLine, ref.Score)
		}
	}
	return sb.String()
}
