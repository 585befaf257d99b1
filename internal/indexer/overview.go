package indexer

import (
	"context"
	"fmt"
	"strings"

	"codelore/internal/chatclient"
)

// overviewFileBatchSize is the number of files summarized per Chat call.
const overviewFileBatchSize = 5

// overviewContentLimit caps how much of one file's content goes into a
// summarization prompt, keeping large files from dominating token budget.
const overviewContentLimit = 4000

const fileSummaryBatchPrompt = `Summarize each of the following source files in 1-2 sentences: what it defines and its role in the project. Base the summary only on the content shown, do not guess at unlisted functionality. Respond with one line per file, in the format "path: summary".

%s`

const overviewSynthesisPrompt = `You are a senior software architect. Based only on the per-file summaries below, write a concise Markdown architectural overview of this project.

Rules:
- Only describe what the summaries show, do not guess at unlisted functionality
- Cover: what the project does, its major components and how they connect, and the key data flow through it
- Keep it under 300 words, no code snippets

## File summaries

%s`

// Chatter is the subset of package chatclient's Client that overview
// synthesis needs. Distinct from queryengine.Chatter so neither package
// depends on the other, even though both are typically satisfied by the
// same *chatclient.Client at wiring time.
type Chatter interface {
	Complete(ctx context.Context, messages []chatclient.Message) (chatclient.Message, error)
}

// fileSource is one file's path and content, gathered during Index for use
// by an optional overview synthesis pass.
type fileSource struct {
	path    string
	content string
}

// synthesizeOverview summarizes files in batches, then asks Chat to
// combine those summaries into one project-level architectural overview.
func synthesizeOverview(ctx context.Context, chat Chatter, files []fileSource) (string, error) {
	if len(files) == 0 {
		return "", fmt.Errorf("indexer: no files to summarize")
	}

	var summaries []string
	for start := 0; start < len(files); start += overviewFileBatchSize {
		end := start + overviewFileBatchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		var b strings.Builder
		for _, f := range batch {
			fmt.Fprintf(&b, "### %s\n```\n%s\n```\n\n", f.path, truncateContent(f.content, overviewContentLimit))
		}

		reply, err := chat.Complete(ctx, []chatclient.Message{
			{Role: chatclient.RoleUser, Content: fmt.Sprintf(fileSummaryBatchPrompt, b.String())},
		})
		if err != nil {
			return "", fmt.Errorf("indexer: summarize batch starting at %d: %w", start, err)
		}
		summaries = append(summaries, strings.TrimSpace(reply.Content))
	}

	reply, err := chat.Complete(ctx, []chatclient.Message{
		{Role: chatclient.RoleUser, Content: fmt.Sprintf(overviewSynthesisPrompt, strings.Join(summaries, "\n"))},
	})
	if err != nil {
		return "", fmt.Errorf("indexer: synthesize overview: %w", err)
	}
	return strings.TrimSpace(reply.Content), nil
}

func truncateContent(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
