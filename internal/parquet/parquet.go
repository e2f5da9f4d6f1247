// Package parquet provides data structures and functions for exporting deepdive
// comparison tables and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/deepdive/core/algo"
	"github.com/huangsam/deepdive/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single tracked analysis or deep-dive run.
// This struct maps to the deepdive_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// Kind is "analysis" or "deep_dive"
	Kind string `parquet:"kind,snappy"`

	System     string `parquet:"system,snappy"`
	Dimensions string `parquet:"dimensions,snappy"`
	Status     string `parquet:"status,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run finished (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// DurationMs is the wall time of the run in milliseconds (nullable)
	DurationMs *int32 `parquet:"duration_ms,optional,snappy"`

	SegmentCount int32   `parquet:"segment_count,snappy"`
	RowCount     int32   `parquet:"row_count,snappy"`
	ErrorMessage *string `parquet:"error_message,optional,snappy"`
}

// ComparisonRow is one flattened row of a comparison table.
type ComparisonRow struct {
	// Table is the segment name, or "Overall" for a flat report
	Table string `parquet:"table,snappy"`

	Rank int32  `parquet:"rank,snappy"`
	Name string `parquet:"name,snappy"`

	// Label is the experiment tokens or bucket identifying the arm (nullable)
	Label *string `parquet:"label,optional,snappy"`

	Control bool `parquet:"control,snappy"`

	// Value and Baseline keep the display text; the numeric columns are set when parseable
	Value          string   `parquet:"value,snappy"`
	ValueNumber    *float64 `parquet:"value_number,optional,snappy"`
	Baseline       string   `parquet:"baseline,snappy"`
	BaselineNumber *float64 `parquet:"baseline_number,optional,snappy"`

	PercentChange string   `parquet:"percent_change,snappy"`
	PercentValue  *float64 `parquet:"percent_value,optional,snappy"`
	Significance  string   `parquet:"significance,snappy"`
}

// writeParquet streams data through a generic writer into w.
func writeParquet[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeParquetFile creates outputPath and writes data to it.
func writeParquetFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return writeParquet(file, data)
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteComparisonRows writes flattened comparison rows to w.
func WriteComparisonRows(w io.Writer, data []ComparisonRow) error {
	return writeParquet(w, data)
}

// WriteComparisonRowsParquet writes flattened comparison rows to a Parquet file.
func WriteComparisonRowsParquet(data []ComparisonRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:        record.RunID,
			Kind:         string(record.Kind),
			System:       record.System,
			Dimensions:   record.Dimensions,
			Status:       string(record.Status),
			StartTime:    record.StartTime,
			EndTime:      record.EndTime,
			DurationMs:   record.DurationMs,
			SegmentCount: record.SegmentCount,
			RowCount:     record.RowCount,
			ErrorMessage: record.ErrorMessage,
		}
	}
	return result
}

// ConvertComparisonTables flattens every row of every table.
func ConvertComparisonTables(tables []schema.ComparisonTable, precision int) []ComparisonRow {
	var result []ComparisonRow
	for _, table := range tables {
		for _, row := range table.Rows {
			rec := ComparisonRow{
				Table:          table.Title,
				Rank:           int32(row.Rank),
				Name:           row.Name,
				Control:        row.Control,
				Value:          row.Value.Display(precision),
				ValueNumber:    numberOf(row.Value),
				Baseline:       row.Baseline.Display(precision),
				BaselineNumber: numberOf(row.Baseline),
				PercentChange:  row.PercentChange,
				Significance:   string(row.Significance),
			}
			if label := row.Label(); label != "" {
				rec.Label = &label
			}
			if row.Comparable {
				pct := row.PercentValue
				rec.PercentValue = &pct
			}
			result = append(result, rec)
		}
	}
	return result
}

func numberOf(m schema.Measure) *float64 {
	v, ok := algo.ParseNumber(m)
	if !ok {
		return nil
	}
	return &v
}
