package cmd

import (
	"github.com/huangsam/catiq/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the catiq MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents query category snapshots:
list and describe tables, run read-only SQL, read source excerpts, ask questions,
score competitors and list signals.

Logs are written to stderr; stdout carries the protocol.

Examples:
  catiq mcp -c obd2 --mode deterministic
  catiq mcp -c obd2 --metrics-addr :9090`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
