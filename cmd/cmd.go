// Package cmd defines the command-line interface for deepdive.
package cmd

import (
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(deepdiveCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dimensionsCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the results subcommands to the parent results command
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsClearCmd)
	resultsCmd.AddCommand(resultsStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend-url", schema.DefaultBackendURL, "Base URL of the analysis backend")
	rootCmd.PersistentFlags().String("system", schema.DefaultSystem, "System name sent to the backend")
	rootCmd.PersistentFlags().Duration("timeout", contract.DefaultTimeout, "Timeout for a single backend call")
	rootCmd.PersistentFlags().Duration("retry-max-elapsed", contract.DefaultRetryMaxElapsed, "Total time spent retrying transient backend failures (0 disables retries)")
	rootCmd.PersistentFlags().Float64("rate", contract.DefaultRate, "Backend requests per second (0 disables pacing)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or markdown or html or xlsx or pdf or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for value and baseline columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored significance in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Result store backend: sqlite or mysql or postgresql or memory or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("history-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of deepdiveCmd to Viper
	deepdiveCmd.Flags().StringSliceP("dimension", "d", nil, "Dimension to segment by (repeatable, up to 3)")
	if err := viper.BindPFlags(deepdiveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding deepdive flags", err)
	}

	resultsClearCmd.Flags().Bool("all", false, "Remove the whole result store instead of the cached slots")

	// Bind all flags of renderCmd to Viper
	renderCmd.Flags().Bool("watch", false, "Re-render whenever the response file changes")
	if err := viper.BindPFlags(renderCmd.Flags()); err != nil {
		contract.LogFatal("Error binding render flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Address for the local HTTP server")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
