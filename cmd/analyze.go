package cmd

import (
	"github.com/huangsam/deepdive/core"
	"github.com/spf13/cobra"
)

// setupCmd uploads the backend configuration files.
var setupCmd = &cobra.Command{
	Use:   "setup <config-dir>",
	Short: "Validate and upload the backend configuration files",
	Long: `Upload the four YAML files the analysis backend needs before any analysis:

  metric_config.yaml
  system_config.yaml
  system_definition.yaml
  deep_dive_config.yaml

Each file must be a YAML mapping. The ".yml" extension is accepted too.

Examples:
  deepdive setup ./configs`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		handleResult("Setup failed", core.ExecuteSetup(rootCtx, cfg, services, args[0]))
	},
}

// analyzeCmd runs the overall analysis.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [request.json]",
	Short: "Run the overall analysis for an experiment request",
	Long: `Submit an experiment request to the backend and print one comparison table.

The request is remembered, so later deep dives and re-runs can omit the file.

Examples:
  deepdive analyze request.json
  deepdive analyze request.json --output markdown --output-file report.md
  deepdive analyze --system DSP`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Analysis failed", core.ExecuteAnalyze),
}

// deepdiveCmd segments the experiment by dimensions.
var deepdiveCmd = &cobra.Command{
	Use:   "deepdive [request.json]",
	Short: "Segment the experiment by up to three dimensions",
	Long: `Run a deep dive and print one comparison table per segment.

Without a request file the request of the last analysis is used.
Run 'deepdive dimensions' to list the dimensions you can segment by.

Examples:
  deepdive deepdive -d "Country Code"
  deepdive deepdive request.json -d "Country Code" -d State`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Deep dive failed", core.ExecuteDeepDive),
}

// renderCmd renders a response file offline.
var renderCmd = &cobra.Command{
	Use:   "render <response.json>",
	Short: "Render a saved backend response without calling the backend",
	Long: `Build comparison tables from a response file with either a "segments" or a
"metrics_table" key. With --watch the file is re-rendered on every change.

Examples:
  deepdive render response.json
  deepdive render response.json --output html --output-file report.html --watch`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		follow, _ := cmd.Flags().GetBool("watch")
		handleResult("Render failed", core.ExecuteRender(rootCtx, cfg, services, args[0], follow))
	},
}

// dashboardCmd shows the run history overview.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show recent analysis and deep-dive runs",
	Long: `Summarize the run history: totals per status and the most recent runs.

Requires a history backend (for example --history-backend sqlite).`,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Dashboard failed", core.ExecuteDashboard),
}

// pingCmd checks backend health.
var pingCmd = &cobra.Command{
	Use:     "ping",
	Short:   "Check that the analysis backend is reachable",
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Ping failed", core.ExecutePing),
}
