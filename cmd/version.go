package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonwong/mcp-servers/lib/build"
)

// newVersionCommand returns a new Cobra command for displaying the current version of the server.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display the current version of the GitLab MCP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Printf("gitlab-mcp-server %s (commit %s, built %s)\n", build.Version(), build.Commit(), build.Date())

			return nil
		},
		Args: cobra.NoArgs,
	}
}
