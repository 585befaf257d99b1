package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"codelore/internal/cliprogress"
	"codelore/internal/jobregistry"
)

var indexCmd = &cobra.Command{
	Use:   "index <url> <repo-name>",
	Short: "Clone or update a repository and index its source into the vector store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, repoName := args[0], args[1]

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		switch a.registry.Start(url, repoName) {
		case jobregistry.AlreadyRunning:
			return fmt.Errorf("%q is already indexing", repoName)
		case jobregistry.Accepted:
		}

		fmt.Printf("Indexing %s as %q...\n", url, repoName)
		start := time.Now()
		showBar := cliprogress.Enabled()
		var bar *cliprogress.Bar

		for {
			snap, outcome := a.registry.Status(repoName)
			if outcome == jobregistry.NotFound {
				return fmt.Errorf("job for %q disappeared", repoName)
			}
			if snap.Progress != nil {
				if bar == nil {
					bar = cliprogress.NewBar(showBar, snap.Progress.TotalFiles, "indexing")
				}
				bar.Set(snap.Progress.ProcessedFiles)
			}
			if snap.State != jobregistry.StateIndexing {
				if bar != nil {
					bar.Finish()
				}
				return reportTerminal(snap, time.Since(start))
			}
			time.Sleep(500 * time.Millisecond)
		}
	},
}

func reportTerminal(snap jobregistry.Snapshot, elapsed time.Duration) error {
	switch snap.State {
	case jobregistry.StateCompleted:
		s := snap.Summary
		fmt.Printf("Done in %s\n", elapsed.Round(time.Millisecond))
		if s != nil {
			fmt.Printf("  Files:  %d processed\n", s.FilesProcessed)
			fmt.Printf("  Chunks: %d indexed\n", s.ChunksIndexed)
			if len(s.Errors) > 0 {
				fmt.Printf("  %d file(s) had parse or read errors\n", len(s.Errors))
			}
			if s.Overview != "" {
				fmt.Printf("\n%s\n", s.Overview)
			}
		}
		return nil
	case jobregistry.StateCancelled:
		return fmt.Errorf("indexing of %q was cancelled", snap.RepoName)
	default:
		if snap.Summary != nil && len(snap.Summary.Errors) > 0 {
			return fmt.Errorf("indexing of %q failed: %s", snap.RepoName, snap.Summary.Errors[0])
		}
		return fmt.Errorf("indexing of %q failed", snap.RepoName)
	}
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
