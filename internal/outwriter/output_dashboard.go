package outwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/internal/parquet"
	"github.com/huangsam/deepdive/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteDashboardResults outputs the run history overview, dispatching on the configured format.
func WriteDashboardResults(summary schema.DashboardSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.ParquetOut:
		if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(summary.Recent), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		return nil
	case schema.XLSXOut, schema.PDFOut:
		return fmt.Errorf("dashboard does not support %s output", cfg.Output)
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteDashboardTo(w, summary, cfg)
	}, "Wrote dashboard")
}

// WriteDashboardTo renders the textual formats of the dashboard to w.
func WriteDashboardTo(w io.Writer, summary schema.DashboardSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, summary)
	case schema.CSVOut:
		return writeDashboardCSV(w, summary)
	case schema.MarkdownOut:
		_, err := w.Write(renderDashboardMarkdown(summary))
		return err
	case schema.HTMLOut:
		p := parser.NewWithExtensions(parser.CommonExtensions)
		doc := p.Parse(renderDashboardMarkdown(summary))
		renderer := html.NewRenderer(html.RendererOptions{Title: "Dashboard", Flags: html.CommonFlags | html.CompletePage})
		_, err := w.Write(markdown.Render(doc, renderer))
		return err
	case schema.XLSXOut, schema.PDFOut, schema.ParquetOut:
		return fmt.Errorf("dashboard does not support %s output", cfg.Output)
	default:
		return writeDashboardTable(w, summary)
	}
}

func writeDashboardTable(w io.Writer, summary schema.DashboardSummary) error {
	if _, err := fmt.Fprintf(w, "Total runs: %d | Completed: %d | In progress: %d | Failed: %d | Cancelled: %d\n",
		summary.TotalRuns, summary.CompletedRuns, summary.RunningRuns, summary.FailedRuns, summary.CancelledRuns); err != nil {
		return err
	}
	if len(summary.Recent) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded yet.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Run", "Kind", "System", "Dimensions", "Status", "Started", "Duration"})
	var data [][]string
	for _, r := range summary.Recent {
		data = append(data, dashboardRow(r))
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeDashboardCSV(w io.Writer, summary schema.DashboardSummary) error {
	header := []string{"run_id", "kind", "system", "dimensions", "status", "start_time", "duration", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range summary.Recent {
			errMsg := ""
			if r.ErrorMessage != nil {
				errMsg = *r.ErrorMessage
			}
			if err := cw.Write(append(dashboardRow(r), errMsg)); err != nil {
				return err
			}
		}
		return nil
	})
}

func renderDashboardMarkdown(summary schema.DashboardSummary) []byte {
	var b bytes.Buffer
	b.WriteString("# Dashboard\n\n")
	fmt.Fprintf(&b, "- Total runs: %d\n- Completed: %d\n- In progress: %d\n- Failed: %d\n- Cancelled: %d\n\n",
		summary.TotalRuns, summary.CompletedRuns, summary.RunningRuns, summary.FailedRuns, summary.CancelledRuns)
	if len(summary.Recent) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.Bytes()
	}
	b.WriteString("| Run | Kind | System | Dimensions | Status | Started | Duration |\n")
	b.WriteString("|---:|:---|:---|:---|:---|:---|---:|\n")
	for _, r := range summary.Recent {
		cells := dashboardRow(r)
		for i := range cells {
			cells[i] = escapeMarkdown(cells[i])
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			cells[0], cells[1], cells[2], cells[3], cells[4], cells[5], cells[6])
	}
	return b.Bytes()
}

func dashboardRow(r schema.RunRecord) []string {
	duration := "-"
	if r.DurationMs != nil {
		duration = strconv.FormatInt(int64(*r.DurationMs), 10) + "ms"
	}
	dims := r.Dimensions
	if dims == "" {
		dims = "-"
	}
	return []string{
		strconv.FormatInt(r.RunID, 10),
		string(r.Kind),
		r.System,
		dims,
		string(r.Status),
		r.StartTime.Local().Format(contract.DateTimeFormat),
		duration,
	}
}
