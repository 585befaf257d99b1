package cmd

import (
	"github.com/spf13/cobra"

	"codelore/internal/mcphost"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing index_repository, ask_question, and related tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		host := &mcphost.Host{Registry: a.registry, Query: a.query}
		return host.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
