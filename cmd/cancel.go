package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codelore/internal/jobregistry"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <repo-name>",
	Short: "Cancel a repository's in-flight index job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		switch a.registry.Cancel(args[0]) {
		case jobregistry.Ok:
			fmt.Printf("Cancellation requested for %q.\n", args[0])
			return nil
		case jobregistry.NotFound:
			return fmt.Errorf("no job found for %q", args[0])
		default:
			return fmt.Errorf("unexpected outcome cancelling %q", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
