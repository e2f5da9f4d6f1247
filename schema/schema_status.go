package schema

import "time"

// StoreStatus represents the status of the result slot store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	Keys            []string  `json:"keys"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRows     int64            `json:"total_rows"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the deepdive_runs table.
type RunRecord struct {
	RunID        int64      `json:"run_id"`
	Kind         ReportKind `json:"kind"`
	System       string     `json:"system"`
	Dimensions   string     `json:"dimensions"`
	Status       RunStatus  `json:"status"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMs   *int32     `json:"duration_ms,omitempty"`
	SegmentCount int32      `json:"segment_count"`
	RowCount     int32      `json:"row_count"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

// RunOutcome is what a finished run reports back to the history store.
type RunOutcome struct {
	Status       RunStatus
	EndTime      time.Time
	SegmentCount int
	RowCount     int
	Err          error
}

// DashboardSummary is the overview shown by the dashboard.
type DashboardSummary struct {
	TotalRuns     int         `json:"total_runs"`
	CompletedRuns int         `json:"completed_runs"`
	RunningRuns   int         `json:"in_progress_runs"`
	FailedRuns    int         `json:"failed_runs"`
	CancelledRuns int         `json:"cancelled_runs"`
	Recent        []RunRecord `json:"recent"`
}
