package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeReportTable generates and writes the human-readable tables, one per segment.
func writeReportTable(w io.Writer, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	heading := reportHeading(report)
	if cfg.UseColors {
		heading = color.New(color.Bold).Sprint(heading)
	}
	if _, err := fmt.Fprintf(w, "%s\n", heading); err != nil {
		return err
	}
	if len(report.Tables) == 0 {
		_, err := fmt.Fprintln(w, "No results to display.")
		return err
	}

	nameWidth := GetMaxTableNameWidth(cfg)
	for _, t := range report.Tables {
		if err := writeComparisonTable(w, t, cfg, nameWidth); err != nil {
			return err
		}
	}

	if err := writeSummaryTable(w, report.Summary, cfg); err != nil {
		return err
	}
	s := report.Summary
	if _, err := fmt.Fprintf(w, "Compared %d rows in %d tables (%d comparable, %d positive, %d negative)\n",
		s.TotalRows, len(report.Tables), s.ComparableRows, s.PositiveRows, s.NegativeRows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Report built in %v. Store backend: %s\n", duration, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeComparisonTable writes a single segment table followed by its verdicts.
func writeComparisonTable(w io.Writer, t schema.ComparisonTable, cfg *contract.Config, nameWidth int) error {
	title := t.Title
	if cfg.UseColors {
		title = color.New(color.Bold, color.Underline).Sprint(title)
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Metric", "Arm", "Value", "Baseline", "% Change", "Significance"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.PerColumn = []tw.Align{
			tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft,
		}
	})

	data := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		c := buildCells(r, cfg.Precision)
		arm := armWithMarker(contract.TruncateText(c.Arm, maxArmWidth), r.Control)
		change := c.Change
		significance := c.Significance
		if cfg.UseColors {
			if r.Control {
				arm = contract.ControlColor.Sprint(arm)
			}
			change = contract.ColorizeChange(change)
			significance = contract.ColorizeBySignificance(r.Significance, significance)
		}
		data = append(data, []string{
			c.Rank,
			contract.TruncateText(c.Metric, nameWidth),
			arm,
			c.Value,
			c.Baseline,
			change,
			significance,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, line := range verdictLines(t) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, insight := range t.KeyInsights {
		if _, err := fmt.Fprintf(w, "  • %s\n", insight); err != nil {
			return err
		}
	}
	return nil
}

// writeSummaryTable prints per-metric aggregates of the percent change across tables.
func writeSummaryTable(w io.Writer, s schema.ReportSummary, cfg *contract.Config) error {
	if len(s.Metrics) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "\nSummary of % change by metric"); err != nil {
		return err
	}
	fmtFloat := floatFormatter(cfg.Precision)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Rows", "Mean", "Median", "Min", "Max"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for _, m := range s.Metrics {
		data = append(data, []string{
			m.Name,
			strconv.Itoa(m.Count),
			fmtFloat(m.Mean),
			fmtFloat(m.Median),
			fmtFloat(m.Min),
			fmtFloat(m.Max),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// reportCSVHeader is shared by the CSV writer and its tests.
var reportCSVHeader = []string{
	"table",
	"rank",
	"metric",
	"arm",
	"control",
	"value",
	"baseline",
	"percent_change",
	"significance",
}

// writeReportCSV writes every table as rows of one CSV document.
func writeReportCSV(w io.Writer, report *schema.Report, cfg *contract.Config) error {
	return writeCSVWithHeader(w, reportCSVHeader, func(cw *csv.Writer) error {
		for _, t := range report.Tables {
			for _, r := range t.Rows {
				c := buildCells(r, cfg.Precision)
				rec := []string{
					t.Title,
					c.Rank,
					c.Metric,
					c.Arm,
					fmt.Sprintf("%t", r.Control),
					c.Value,
					c.Baseline,
					c.Change,
					string(r.Significance),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
