package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"codelore/internal/jobregistry"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <repo-name>",
	Short: "Remove a repository's terminal job record (forbidden while indexing)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		switch a.registry.Delete(cmd.Context(), args[0]) {
		case jobregistry.Ok:
			fmt.Printf("Deleted job record for %q.\n", args[0])
			return nil
		case jobregistry.Conflict:
			return fmt.Errorf("%q is still indexing; cancel it first", args[0])
		case jobregistry.NotFound:
			return fmt.Errorf("no job found for %q", args[0])
		default:
			return fmt.Errorf("unexpected outcome deleting %q", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
