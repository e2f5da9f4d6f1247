package core

import (
	"fmt"
	"time"

	"github.com/huangsam/deepdive/core/algo"
	"github.com/huangsam/deepdive/schema"
	"github.com/montanaflynn/stats"
)

// OverallTitle names the single table of a flat analysis response.
const OverallTitle = "Overall"

// Normalize turns either response shape into display-ready comparison tables.
func Normalize(shape schema.ResponseShape, preferred []string) []schema.ComparisonTable {
	switch s := shape.(type) {
	case schema.Segmented:
		tables := make([]schema.ComparisonTable, 0, len(s.Segments))
		for i, seg := range s.Segments {
			title := seg.Segment
			if title == "" {
				title = fmt.Sprintf("Segment %d", i+1)
			}
			rows, control := algo.BuildComparisonTable(seg.Metrics, preferred)
			tables = append(tables, schema.ComparisonTable{
				Title:              title,
				Rows:               rows,
				ControlIndex:       control,
				FinalVerdict:       seg.FinalVerdict,
				ScalabilityVerdict: seg.ScalabilityVerdict,
				KeyInsights:        seg.KeyInsights,
			})
		}
		return tables
	case schema.Flat:
		rows, control := algo.BuildComparisonTable(s.Report.MetricsTable, preferred)
		return []schema.ComparisonTable{{
			Title:              OverallTitle,
			Rows:               rows,
			ControlIndex:       control,
			FinalVerdict:       s.Report.FinalVerdict,
			ScalabilityVerdict: s.Report.ScalabilityVerdict,
			KeyInsights:        s.Report.KeyInsights,
		}}
	default:
		return nil
	}
}

// KindOf reports which backend operation produces the given shape.
func KindOf(shape schema.ResponseShape) schema.ReportKind {
	if _, ok := shape.(schema.Segmented); ok {
		return schema.DeepDiveReport
	}
	return schema.AnalysisReport
}

// BuildReport normalizes a response and attaches its summary.
func BuildReport(kind schema.ReportKind, system string, dimensions []string, shape schema.ResponseShape, preferred []string) *schema.Report {
	tables := Normalize(shape, preferred)
	return &schema.Report{
		Kind:        kind,
		System:      system,
		Dimensions:  dimensions,
		GeneratedAt: time.Now(),
		Tables:      tables,
		Summary:     Summarize(tables, preferred),
	}
}

// Summarize aggregates the comparable percent changes of every table.
func Summarize(tables []schema.ComparisonTable, preferred []string) schema.ReportSummary {
	var summary schema.ReportSummary
	changes := map[string][]float64{}
	for _, t := range tables {
		for _, r := range t.Rows {
			summary.TotalRows++
			switch r.Significance {
			case schema.SignificancePositive:
				summary.PositiveRows++
			case schema.SignificanceNegative:
				summary.NegativeRows++
			}
			if !r.Comparable {
				continue
			}
			summary.ComparableRows++
			changes[r.Name] = append(changes[r.Name], r.PercentValue)
		}
	}

	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	summary.Metrics = make([]schema.MetricSummary, 0, len(names))
	for _, name := range algo.OrderMetricNames(names, preferred) {
		summary.Metrics = append(summary.Metrics, summarizeMetric(name, changes[name]))
	}
	return summary
}

// summarizeMetric is only called with at least one value, so the stats calls cannot fail.
func summarizeMetric(name string, values []float64) schema.MetricSummary {
	data := stats.Float64Data(values)
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)
	return schema.MetricSummary{
		Name:   name,
		Count:  len(values),
		Mean:   mean,
		Median: median,
		Min:    lo,
		Max:    hi,
	}
}
