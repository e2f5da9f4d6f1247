package outwriter

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// pdfColumn describes one column of a PDF table.
type pdfColumn struct {
	title string
	width float64
	align string
}

var pdfColumns = []pdfColumn{
	{"Rank", 12, "R"},
	{"Metric", 58, "L"},
	{"Arm", 34, "L"},
	{"Value", 22, "R"},
	{"Baseline", 22, "R"},
	{"% Change", 22, "R"},
	{"Significance", 20, "L"},
}

const pdfRowHeight = 6.0

// WriteReportPDF writes an A4 portrait document with one section per table.
func WriteReportPDF(w io.Writer, report *schema.Report, cfg *contract.Config) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(reportHeading(report), true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(reportHeading(report)), "", 1, "L", false, 0, "")
	if !report.GeneratedAt.IsZero() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 5, "Generated "+report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	}
	if len(report.Tables) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, "No results to display.", "", 1, "L", false, 0, "")
	}

	for _, t := range report.Tables {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
		writePDFHeader(pdf)

		pdf.SetFont("Helvetica", "", 9)
		for _, r := range t.Rows {
			c := buildCells(r, cfg.Precision)
			arm := c.Arm
			if r.Control {
				arm += " *"
			}
			values := []string{
				c.Rank,
				contract.TruncateText(c.Metric, 34),
				contract.TruncateText(arm, 20),
				c.Value,
				c.Baseline,
				c.Change,
				c.Significance,
			}
			if r.Control {
				pdf.SetFillColor(225, 240, 250)
			}
			for i, col := range pdfColumns {
				pdf.CellFormat(col.width, pdfRowHeight, tr(values[i]), "1", 0, col.align, r.Control, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Helvetica", "", 9)
		for _, line := range verdictLines(t) {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
		for _, insight := range t.KeyInsights {
			pdf.MultiCell(0, 5, tr("- "+insight), "", "L", false)
		}
	}

	if hasControl(report) {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, "* control arm", "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func writePDFHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, pdfRowHeight, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func hasControl(report *schema.Report) bool {
	for _, t := range report.Tables {
		if t.ControlIndex >= 0 {
			return true
		}
	}
	return false
}
