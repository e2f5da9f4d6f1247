package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/deepdive/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []Run {
	now := time.Now()
	end := now.Add(2 * time.Second)
	duration := int32(2000)
	msg := "Backend error: 500 - boom"

	return []Run{
		{
			RunID:        1,
			Kind:         "analysis",
			System:       "BSS",
			Status:       "completed",
			StartTime:    now,
			EndTime:      &end,
			DurationMs:   &duration,
			SegmentCount: 1,
			RowCount:     4,
		},
		{
			RunID:        2,
			Kind:         "deep_dive",
			System:       "BSS",
			Dimensions:   "Country Code,State",
			Status:       "failed",
			StartTime:    now,
			ErrorMessage: &msg,
		},
	}
}

func readAll[T any](t *testing.T, r io.ReaderAt) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](r)
	defer func() { _ = reader.Close() }()

	out := make([]T, reader.NumRows())
	n, err := reader.Read(out)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return out[:n]
}

func TestRunStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(Run))
	require.NotNil(t, s)

	for _, colName := range []string{
		"run_id", "kind", "system", "dimensions", "status", "start_time",
		"end_time", "duration_ms", "segment_count", "row_count", "error_message",
	} {
		col, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
		require.NotNil(t, col)
	}
}

func TestComparisonRowStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(ComparisonRow))
	for _, colName := range []string{
		"table", "rank", "name", "label", "control", "value", "value_number",
		"baseline", "baseline_number", "percent_change", "percent_value", "significance",
	} {
		_, ok := s.Lookup(colName)
		assert.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()

	require.NoError(t, WriteRunsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	readData := readAll[Run](t, file)
	require.Len(t, readData, len(data))

	assert.Equal(t, int64(1), readData[0].RunID)
	require.NotNil(t, readData[0].DurationMs)
	assert.Equal(t, int32(2000), *readData[0].DurationMs)
	assert.Nil(t, readData[0].ErrorMessage)
	assert.WithinDuration(t, data[0].StartTime, readData[0].StartTime, time.Nanosecond)

	assert.Nil(t, readData[1].EndTime)
	require.NotNil(t, readData[1].ErrorMessage)
	assert.Equal(t, "Backend error: 500 - boom", *readData[1].ErrorMessage)
	assert.Equal(t, "Country Code,State", readData[1].Dimensions)
}

func TestWriteRunsParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")
}

func TestWriteRunsParquet_InvalidPath(t *testing.T) {
	err := WriteRunsParquet(sampleRuns(), "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}

func TestConvertRunRecords(t *testing.T) {
	duration := int32(12)
	records := []schema.RunRecord{{
		RunID:      7,
		Kind:       schema.DeepDiveReport,
		System:     "BSS",
		Dimensions: "State",
		Status:     schema.RunCancelled,
		DurationMs: &duration,
	}}

	got := ConvertRunRecords(records)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].RunID)
	assert.Equal(t, "deep_dive", got[0].Kind)
	assert.Equal(t, "cancelled", got[0].Status)
	assert.Equal(t, &duration, got[0].DurationMs)
}

func TestConvertComparisonTables(t *testing.T) {
	tables := []schema.ComparisonTable{{
		Title: "US",
		Rows: []schema.ComparisonRow{
			{
				MetricRow: schema.MetricRow{
					Name:     "Revenue",
					Value:    schema.NumberMeasure(120),
					Baseline: schema.NumberMeasure(100),
					Bucket:   "bucket:0",
				},
				PercentChange: "+20.00%",
				PercentValue:  20,
				Comparable:    true,
				Rank:          1,
				Control:       true,
			},
			{
				MetricRow: schema.MetricRow{
					Name:     "Clicks",
					Value:    schema.StringMeasure("n/a"),
					Baseline: schema.NumberMeasure(0),
				},
				PercentChange: "-",
				Rank:          2,
			},
		},
	}}

	rows := ConvertComparisonTables(tables, 2)
	require.Len(t, rows, 2)

	assert.Equal(t, "US", rows[0].Table)
	assert.Equal(t, "120.00", rows[0].Value)
	require.NotNil(t, rows[0].ValueNumber)
	assert.InDelta(t, 120.0, *rows[0].ValueNumber, 1e-9)
	require.NotNil(t, rows[0].Label)
	assert.Equal(t, "bucket:0", *rows[0].Label)
	require.NotNil(t, rows[0].PercentValue)
	assert.True(t, rows[0].Control)

	assert.Equal(t, "n/a", rows[1].Value)
	assert.Nil(t, rows[1].ValueNumber)
	assert.Nil(t, rows[1].Label)
	assert.Nil(t, rows[1].PercentValue)
	assert.Equal(t, "-", rows[1].PercentChange)

	var buf bytes.Buffer
	require.NoError(t, WriteComparisonRows(&buf, rows))
	back := readAll[ComparisonRow](t, bytes.NewReader(buf.Bytes()))
	require.Len(t, back, 2)
	assert.Equal(t, "Revenue", back[0].Name)
	assert.Equal(t, int32(2), back[1].Rank)
}
