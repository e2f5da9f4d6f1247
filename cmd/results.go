package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/deepdive/core"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/internal/iocache"
	"github.com/spf13/cobra"
)

// resultsCmd focused on cached result management.
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show or clear the cached analysis results",
	Long: `Manage the results kept between commands.

The store keeps the last overall analysis, the last deep dive and the session
(the uploaded experiment request and whether setup was done).

Supported backends: SQLite (default), MySQL, PostgreSQL, memory or none

Subcommands:
  show   - Re-render the most recent cached result
  clear  - Forget cached results and the experiment request
  status - Show store statistics`,
}

// resultsShowCmd re-renders cached results.
var resultsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Re-render the most recent cached result",
	Long: `Print the cached deep dive, or the cached overall analysis when no deep dive
was run, exactly as it was rendered the first time.`,
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("Failed to show results", core.ExecuteShowResults),
}

// resultsClearCmd clears cached results.
var resultsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget cached results and the experiment request",
	Long: `Forget the cached deep dive, the cached overall analysis and the experiment
request. Setup state is kept.

With --all the whole store is removed: the SQLite file is deleted, or the
slots table is dropped for MySQL and PostgreSQL.`,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		if all, _ := cmd.Flags().GetBool("all"); !all {
			handleResult("Failed to clear results", core.ExecuteClearResults(rootCtx, cfg, services))
			return
		}
		iocache.CloseStores()
		path := cfg.StoreDBConnect
		if path == "" {
			path = iocache.GetStoreDBFilePath()
		}
		if err := iocache.ClearStore(cfg.StoreBackend, path, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear result store", err)
		}
		fmt.Println("Result store cleared successfully.")
	},
}

// resultsStatusCmd shows store status.
var resultsStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display result store statistics and connection details",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetResultStore()
		if store == nil {
			contract.LogFatal("Failed to get store status", errNoStore)
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}
