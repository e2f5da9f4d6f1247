// Package core has the orchestration behind every deepdive command: it talks to
// the analysis backend, keeps results in the slot store and renders reports.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/internal/watch"
	"github.com/huangsam/deepdive/schema"
)

// Services bundles the collaborators shared by the Execute functions.
type Services struct {
	Client contract.AnalysisClient
	Stores contract.StoreManager
	Writer contract.ReportWriter
}

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, svc *Services) error

// ExecutePing probes the backend health endpoint.
func ExecutePing(ctx context.Context, cfg *contract.Config, svc *Services) error {
	if !svc.Client.Ping(ctx) {
		return fmt.Errorf("backend at %s is not reachable", cfg.BackendURL)
	}
	fmt.Fprintf(os.Stderr, "✅ Backend reachable at %s\n", cfg.BackendURL)
	return nil
}

// ExecuteShowResults renders the cached deep dive, or the cached analysis when
// no deep dive was run. The output matches a fresh render of the same response.
func ExecuteShowResults(_ context.Context, cfg *contract.Config, svc *Services) error {
	start := time.Now()
	report, err := LoadCachedReport(resultStore(svc), cfg.PreferredMetrics)
	if err != nil {
		return err
	}
	return svc.Writer.WriteReport(report, cfg, time.Since(start))
}

// ExecuteClearResults starts a new experiment by forgetting cached results and the request.
func ExecuteClearResults(_ context.Context, _ *contract.Config, svc *Services) error {
	if err := ClearResults(resultStore(svc)); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "🧹 Cleared cached results and experiment request")
	return nil
}

// ExecuteDashboard prints the run history overview.
func ExecuteDashboard(_ context.Context, cfg *contract.Config, svc *Services) error {
	var store contract.HistoryStore
	if svc.Stores != nil {
		store = svc.Stores.GetHistoryStore()
	}
	if store == nil {
		return errors.New("run history is disabled; set --history-backend to enable it")
	}
	summary, err := BuildDashboard(store, contract.DefaultHistoryLimit)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	return svc.Writer.WriteDashboard(summary, cfg)
}

// RenderFile builds a report from a response JSON file without calling the backend.
func RenderFile(path string, cfg *contract.Config) (*schema.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read response file: %w", err)
	}
	shape, err := schema.DecodeResponse(data)
	if err != nil {
		return nil, err
	}
	return BuildReport(KindOf(shape), cfg.System, nil, shape, cfg.PreferredMetrics), nil
}

// ExecuteRender renders a response file from disk. With follow set, the file is
// re-rendered on every change until ctx is cancelled.
func ExecuteRender(ctx context.Context, cfg *contract.Config, svc *Services, path string, follow bool) error {
	render := func() error {
		start := time.Now()
		report, err := RenderFile(path, cfg)
		if err != nil {
			return err
		}
		return svc.Writer.WriteReport(report, cfg, time.Since(start))
	}

	if err := render(); err != nil {
		return err
	}
	if !follow {
		return nil
	}

	fmt.Fprintf(os.Stderr, "👀 Watching %s for changes (Ctrl+C to stop)\n", path)
	return watch.File(ctx, path, watch.DefaultDebounce, func() {
		if err := render(); err != nil {
			contract.LogWarn("Render failed", err)
		}
	})
}
