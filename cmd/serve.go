package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/deepdive/internal/mcp"
	"github.com/huangsam/deepdive/internal/web"
	"github.com/huangsam/deepdive/schema"
	"github.com/spf13/cobra"
)

// serveCmd starts the local HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve results and deep dives over a local HTTP API",
	Long: `Start a local HTTP server with these routes:

  GET    /healthz
  GET    /api/dimensions
  GET    /api/results
  DELETE /api/results
  POST   /api/deep-dive
  POST   /api/compare
  GET    /report
  GET    /report.pdf`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		handleResult("Server failed", web.NewServer(cfg, services).ListenAndServe(rootCtx, cfg.Addr))
	},
}

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the deepdive MCP server",
	Long:  `Launch an MCP server that allows AI agents to compare metrics and run deep dives via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Run headers are suppressed per call so stdio stays reserved for the protocol
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, services)
	},
}

// dimensionsCmd lists the deep-dive dimensions.
var dimensionsCmd = &cobra.Command{
	Use:     "dimensions",
	Short:   "List the dimensions a deep dive can segment by",
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Dimensions (select up to %d):\n", schema.MaxDimensions)
		for _, d := range cfg.AllowedDimensions {
			_, _ = fmt.Fprintf(out, "  %s\n", d)
		}
		if len(cfg.PreferredMetrics) > 0 {
			_, _ = fmt.Fprintf(out, "Preferred metric order: %s\n", strings.Join(cfg.PreferredMetrics, ", "))
		}
	},
}
