package main

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/tagtrace/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tag tools over MCP (stdio)",
	Long: `Run an MCP server on stdin/stdout exposing tag_create_chain, tag_search,
tag_validate, tag_repair, tag_index, tag_stats and tag_scan.

Logs go to stderr so they never mix with the protocol stream.`,
	GroupID: GroupAdvanced,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := mcpserver.New(tagAgent, Version)
		logger.Info("mcp server starting", "db", dbPath)
		if err := mcpserver.Serve(s); err != nil {
			FatalError("mcp server: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
