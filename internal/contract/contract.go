// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/deepdive/schema"
)

// ConfigUpload is one backend configuration file ready for upload.
type ConfigUpload struct {
	Field    string
	FileName string
	Content  []byte
}

// AnalysisClient defines the operations offered by the analysis backend.
// This allows the orchestration logic to be tested without a running backend.
type AnalysisClient interface {
	// Ping reports whether the backend answers its health endpoint.
	Ping(ctx context.Context) bool

	// UploadConfig registers the backend configuration files.
	UploadConfig(ctx context.Context, files []ConfigUpload) error

	// AnalyzeRequest submits an experiment request and returns the raw flat response.
	AnalyzeRequest(ctx context.Context, requestJSON []byte, system string) ([]byte, error)

	// DeepDive runs a segmented analysis and returns the raw segmented response.
	DeepDive(ctx context.Context, query schema.DeepDiveQuery) ([]byte, error)
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetResultStore() ResultStore
	GetHistoryStore() HistoryStore
}

// ResultStore is a key-value store of opaque blobs under fixed slot keys.
type ResultStore interface {
	// Get returns the blob stored under key and whether it was present.
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Clear(key string) error
	GetStatus() (schema.StoreStatus, error)
	Close() error
}

// HistoryStore tracks analysis and deep-dive runs.
type HistoryStore interface {
	// BeginRun records a running run and returns its unique ID.
	BeginRun(kind schema.ReportKind, system string, dimensions []string, startTime time.Time) (int64, error)

	// EndRun records the final state of a run.
	EndRun(runID int64, outcome schema.RunOutcome) error

	// ListRuns returns the most recent runs first, at most limit of them.
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetStatus returns status information about the history store.
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// ReportWriter renders reports in the configured output format.
type ReportWriter interface {
	WriteReport(report *schema.Report, cfg *Config, duration time.Duration) error
	WriteDashboard(summary schema.DashboardSummary, cfg *Config) error
}
