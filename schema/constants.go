package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// Significance is the upstream significance tag attached to a metric row.
	Significance string

	// ReportKind identifies which backend operation produced a report.
	ReportKind string

	// RunStatus represents the lifecycle state of a tracked run.
	RunStatus string
)

// All output modes supported.
const (
	TextOut     OutputMode = "text" // default
	CSVOut      OutputMode = "csv"
	JSONOut     OutputMode = "json"
	MarkdownOut OutputMode = "markdown"
	HTMLOut     OutputMode = "html"
	XLSXOut     OutputMode = "xlsx"
	PDFOut      OutputMode = "pdf"
	ParquetOut  OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
	NoneBackend       DatabaseBackend = "none"
)

// Significance tags emitted by the analysis backend.
const (
	SignificancePositive Significance = "positive"
	SignificanceNegative Significance = "negative"
	SignificanceNone     Significance = ""
)

// Report kinds.
const (
	AnalysisReport ReportKind = "analysis"
	DeepDiveReport ReportKind = "deep_dive"
)

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Fixed slot keys of the result store.
const (
	SlotDeepDiveResults = "deepDiveResults"
	SlotAnalysisResults = "analysisResults"
	SlotSession         = "session"
)

// DefaultSystem is the system name sent to the backend when none is configured.
const DefaultSystem = "BSS"

// DefaultBackendURL points at a locally running analysis backend.
const DefaultBackendURL = "http://127.0.0.1:8000/api"

// MaxDimensions is the largest number of dimensions a deep dive can segment by.
const MaxDimensions = 3

// PreferredMetricOrder is the default priority list for metric display order.
var PreferredMetricOrder = []string{
	"Bid Price (HB Rendered Ad)",
	"Profit (HB Rendered Ad)",
	"Bidder Win Rate (1K)",
	"Bidder Rev Rate (10M)",
	"MNET Rev Rate (10M)",
}

// AvailableDimensions lists the dimensions a deep dive can segment by.
var AvailableDimensions = []string{
	"Provider Name",
	"Integration Type",
	"Device Type (as in HB Reports)",
	"Data center",
	"Customer Name",
	"UID Sent - Incremental",
	"Cookie Flag",
	"New Browser Name",
	"New OS Name",
	"Country Code",
	"State",
}

// ConfigFile pairs a multipart field of the upload-config call with its required file name.
type ConfigFile struct {
	Field    string
	FileName string
}

// RequiredConfigFiles are the backend configuration files accepted by setup.
var RequiredConfigFiles = []ConfigFile{
	{Field: "metric_config", FileName: "metric_config.yaml"},
	{Field: "system_config", FileName: "system_config.yaml"},
	{Field: "system_definition", FileName: "system_definition.yaml"},
	{Field: "deep_dive_config", FileName: "deep_dive_config.yaml"},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:     {},
	CSVOut:      {},
	JSONOut:     {},
	MarkdownOut: {},
	HTMLOut:     {},
	XLSXOut:     {},
	PDFOut:      {},
	ParquetOut:  {},
}

// BinaryOutputModes cannot be streamed to a terminal and need an output file.
var BinaryOutputModes = map[OutputMode]struct{}{
	XLSXOut:    {},
	PDFOut:     {},
	ParquetOut: {},
}

// ValidStoreBackends lists all valid result store backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid run history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
