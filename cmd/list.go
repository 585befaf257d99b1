package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known repository with its current index state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		snapshots := a.registry.List()
		if len(snapshots) == 0 {
			fmt.Println("No repositories indexed yet.")
			return nil
		}
		for _, snap := range snapshots {
			fmt.Printf("%-30s %s\n", snap.RepoName, snap.State)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
