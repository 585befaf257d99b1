package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codelore/internal/jobregistry"
)

var statusCmd = &cobra.Command{
	Use:   "status <repo-name>",
	Short: "Show the current state of a repository's index job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		snap, outcome := a.registry.Status(args[0])
		if outcome == jobregistry.NotFound {
			return fmt.Errorf("no job found for %q", args[0])
		}
		fmt.Printf("%s: %s\n", snap.RepoName, snap.State)
		if snap.Progress != nil {
			p := snap.Progress
			fmt.Printf("  %d/%d files, %d chunks, current: %s\n", p.ProcessedFiles, p.TotalFiles, p.TotalChunks, p.CurrentFile)
		}
		if snap.Summary != nil {
			s := snap.Summary
			fmt.Printf("  files=%d chunks=%d duration=%s errors=%d\n", s.FilesProcessed, s.ChunksIndexed, s.Duration, len(s.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
