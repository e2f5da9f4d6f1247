package outwriter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// controlMarker tags the control arm in every rendered format.
const controlMarker = "(control)"

// reportCell holds the display strings of one comparison row.
type reportCell struct {
	Rank         string
	Metric       string
	Arm          string
	Value        string
	Baseline     string
	Change       string
	Significance string
}

// buildCells renders a row with the configured precision. Nothing is colored here.
func buildCells(r schema.ComparisonRow, precision int) reportCell {
	arm := r.Label()
	if arm == "" {
		arm = "-"
	}
	change := r.PercentChange
	if change == "" {
		change = "-"
	}
	return reportCell{
		Rank:         strconv.Itoa(r.Rank),
		Metric:       r.Name,
		Arm:          arm,
		Value:        r.Value.Display(precision),
		Baseline:     r.Baseline.Display(precision),
		Change:       change,
		Significance: contract.SignificanceLabel(r.Significance),
	}
}

// armWithMarker appends the control marker to the arm label of the control row.
func armWithMarker(arm string, control bool) string {
	if !control {
		return arm
	}
	return arm + " " + controlMarker
}

// reportHeading is the one-line title printed above the tables.
func reportHeading(report *schema.Report) string {
	var b strings.Builder
	switch report.Kind {
	case schema.DeepDiveReport:
		b.WriteString("Deep Dive")
	default:
		b.WriteString("Experiment Analysis")
	}
	if report.System != "" {
		fmt.Fprintf(&b, " (%s)", report.System)
	}
	if len(report.Dimensions) > 0 {
		fmt.Fprintf(&b, " by %s", strings.Join(report.Dimensions, ", "))
	}
	return b.String()
}

// verdictLines flattens the verdict fields of a table into printable lines.
func verdictLines(t schema.ComparisonTable) []string {
	var lines []string
	if t.FinalVerdict != "" {
		lines = append(lines, "Final verdict: "+t.FinalVerdict)
	}
	if v := t.ScalabilityVerdict; v != nil && v.Verdict != "" {
		line := "Scalability: " + v.Verdict
		if len(v.Reasons) > 0 {
			line += " (" + strings.Join(v.Reasons, "; ") + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
