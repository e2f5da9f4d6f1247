package core

import (
	"time"

	"github.com/huangsam/deepdive/internal/backend"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// runTracker records one backend run in the history store, when configured.
type runTracker struct {
	store contract.HistoryStore
	id    int64
}

// beginRun starts tracking a run. Tracking failures only warn.
func beginRun(mgr contract.StoreManager, kind schema.ReportKind, system string, dimensions []string) *runTracker {
	if mgr == nil {
		return &runTracker{}
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return &runTracker{}
	}
	id, err := store.BeginRun(kind, system, dimensions, time.Now())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return &runTracker{}
	}
	return &runTracker{store: store, id: id}
}

// end records the outcome of the run: completed with its counts, cancelled or failed.
func (t *runTracker) end(report *schema.Report, err error) {
	if t.store == nil || t.id <= 0 {
		return
	}
	outcome := schema.RunOutcome{Status: schema.RunCompleted, EndTime: time.Now()}
	switch {
	case err == nil:
		if report != nil {
			outcome.SegmentCount = len(report.Tables)
			outcome.RowCount = report.Summary.TotalRows
		}
	case backend.IsCancellation(err):
		outcome.Status = schema.RunCancelled
	default:
		outcome.Status = schema.RunFailed
		outcome.Err = err
	}
	if endErr := t.store.EndRun(t.id, outcome); endErr != nil {
		contract.LogWarn("Failed to finalize run tracking", endErr)
	}
}

// BuildDashboard summarizes the run history, keeping at most limit recent runs.
func BuildDashboard(store contract.HistoryStore, limit int) (schema.DashboardSummary, error) {
	var summary schema.DashboardSummary
	runs, err := store.ListRuns(0)
	if err != nil {
		return summary, err
	}
	summary.TotalRuns = len(runs)
	for _, r := range runs {
		switch r.Status {
		case schema.RunCompleted:
			summary.CompletedRuns++
		case schema.RunRunning:
			summary.RunningRuns++
		case schema.RunFailed:
			summary.FailedRuns++
		case schema.RunCancelled:
			summary.CancelledRuns++
		}
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	summary.Recent = runs
	return summary, nil
}
