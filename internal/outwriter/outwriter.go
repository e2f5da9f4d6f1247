// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

var _ contract.ReportWriter = &OutWriter{} // Compile-time check

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport prints a comparison report using the configured output format.
func (ow *OutWriter) WriteReport(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	return WriteReportResults(report, cfg, duration)
}

// WriteDashboard prints the run history overview using the configured output format.
func (ow *OutWriter) WriteDashboard(summary schema.DashboardSummary, cfg *contract.Config) error {
	return WriteDashboardResults(summary, cfg)
}

// WriteReportResults outputs the report, dispatching based on the output format configured.
func WriteReportResults(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	if report == nil {
		return fmt.Errorf("no report to write")
	}

	switch cfg.Output {
	case schema.XLSXOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteReportXLSX(w, report, cfg)
		}, "Wrote XLSX")
	case schema.PDFOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteReportPDF(w, report, cfg)
		}, "Wrote PDF")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteReportParquet(w, report, cfg)
		}, "Wrote Parquet")
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteReportTo(w, report, cfg, duration)
	}, "Wrote "+string(cfg.Output))
}

// WriteReportTo renders the textual formats of a report to w.
func WriteReportTo(w io.Writer, report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSON(w, report); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeReportCSV(w, report, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MarkdownOut:
		if _, err := w.Write(RenderMarkdown(report, cfg)); err != nil {
			return fmt.Errorf("error writing Markdown output: %w", err)
		}
	case schema.HTMLOut:
		if _, err := w.Write(RenderHTML(report, cfg)); err != nil {
			return fmt.Errorf("error writing HTML output: %w", err)
		}
	case schema.XLSXOut:
		return WriteReportXLSX(w, report, cfg)
	case schema.PDFOut:
		return WriteReportPDF(w, report, cfg)
	case schema.ParquetOut:
		return WriteReportParquet(w, report, cfg)
	default:
		// Default to human-readable table
		return writeReportTable(w, report, cfg, duration)
	}
	return nil
}
