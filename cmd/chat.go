package cmd

import (
	"github.com/spf13/cobra"

	"codelore/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat <repo-name>",
	Short: "Open an interactive chat session over an indexed repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoName := args[0]

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		return tui.Run(tui.Config{
			RepoName:   repoName,
			Query:      a.query,
			MaxResults: flagMaxResults,
		})
	},
}

func init() {
	chatCmd.Flags().IntVar(&flagMaxResults, "max-results", 5, "maximum number of context chunks to retrieve")
	rootCmd.AddCommand(chatCmd)
}
