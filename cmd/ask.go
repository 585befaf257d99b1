package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagMaxResults int

var askCmd = &cobra.Command{
	Use:   "ask <repo-name> <question>",
	Short: "Ask a question about an indexed repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoName, question := args[0], args[1]

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		result, err := a.query.Ask(cmd.Context(), question, repoName, flagMaxResults)
		if err != nil {
			return err
		}

		fmt.Println(result.Answer)
		if len(result.References) > 0 {
			fmt.Println("\nReferences:")
			for _, ref := range result.References {
				fmt.Printf("  %s (lines %d-%d) score=%.3f\n", ref.FilePath, ref.StartLine, ref.EndLine, ref.Score)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().IntVar(&flagMaxResults, "max-results", 5, "maximum number of context chunks to retrieve")
	rootCmd.AddCommand(askCmd)
}
