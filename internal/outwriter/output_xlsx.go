package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/deepdive/core/algo"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/xuri/excelize/v2"
)

// maxSheetNameLen is the Excel limit on sheet names.
const maxSheetNameLen = 31

// WriteReportXLSX writes a workbook with one sheet per table and a summary sheet.
func WriteReportXLSX(w io.Writer, report *schema.Report, cfg *contract.Config) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	used := map[string]struct{}{}
	first := true
	for _, t := range report.Tables {
		name := uniqueSheetName(t.Title, used)
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeTableSheet(f, name, t, cfg.Precision, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", name, err)
		}
	}

	if len(report.Summary.Metrics) > 0 || first {
		name := uniqueSheetName("Summary", used)
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSummarySheet(f, name, report.Summary, headerStyle); err != nil {
			return fmt.Errorf("failed to write summary sheet: %w", err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

func writeTableSheet(f *excelize.File, sheet string, t schema.ComparisonTable, precision, headerStyle int) error {
	header := []any{"Rank", "Metric", "Arm", "Control", "Value", "Baseline", "% Change", "Significance"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return err
	}

	for i, r := range t.Rows {
		c := buildCells(r, precision)
		row := []any{
			r.Rank,
			c.Metric,
			c.Arm,
			r.Control,
			cellValue(r.Value, c.Value),
			cellValue(r.Baseline, c.Baseline),
			c.Change,
			c.Significance,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	next := len(t.Rows) + 3
	for _, line := range append(verdictLines(t), t.KeyInsights...) {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return err
		}
		next++
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, s schema.ReportSummary, headerStyle int) error {
	header := []any{"Metric", "Rows", "Mean", "Median", "Min", "Max"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", headerStyle); err != nil {
		return err
	}
	for i, m := range s.Metrics {
		row := []any{m.Name, m.Count, m.Mean, m.Median, m.Min, m.Max}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// cellValue keeps JSON numbers numeric in the workbook and falls back to display text.
func cellValue(m schema.Measure, display string) any {
	if m.Kind() == schema.MeasureNumber {
		if v, ok := algo.ParseNumber(m); ok {
			return v
		}
	}
	return display
}

var sheetNameReplacer = strings.NewReplacer(
	":", "-", `\`, "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")",
)

// uniqueSheetName turns a table title into a valid, unused sheet name.
func uniqueSheetName(title string, used map[string]struct{}) string {
	base := strings.Trim(sheetNameReplacer.Replace(title), "' ")
	if base == "" {
		base = "Table"
	}
	base = truncateRunes(base, maxSheetNameLen)

	name := base
	for i := 2; ; i++ {
		if _, taken := used[strings.ToLower(name)]; !taken {
			break
		}
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncateRunes(base, maxSheetNameLen-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = struct{}{}
	return name
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
