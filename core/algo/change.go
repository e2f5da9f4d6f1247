package algo

import (
	"math"

	"github.com/huangsam/deepdive/schema"
)

// NotComputable is the percent change shown when value or baseline is unusable.
const NotComputable = "-"

// PercentChange computes 100*(value-baseline)/|baseline|. It fails when either
// side does not parse as a finite number or the baseline is zero.
func PercentChange(value, baseline schema.Measure) (float64, bool) {
	v, ok := ParseNumber(value)
	if !ok {
		return 0, false
	}
	b, ok := ParseNumber(baseline)
	if !ok || b == 0 {
		return 0, false
	}
	pct := 100 * (v - b) / math.Abs(b)
	if math.IsInf(pct, 0) || math.IsNaN(pct) {
		return 0, false
	}
	return pct, true
}

// FormatPercentChange renders pct with two decimals, a "+" for values >= 0 and a "%" suffix.
func FormatPercentChange(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
	}
	return sign + toFixed(pct, 2) + "%"
}

// ComputePercentChange enriches each row with its percent change. Order and
// every original field are preserved.
func ComputePercentChange(rows []schema.MetricRow) []schema.ComparisonRow {
	out := make([]schema.ComparisonRow, len(rows))
	for i, row := range rows {
		out[i] = schema.ComparisonRow{MetricRow: row, PercentChange: NotComputable}
		if pct, ok := PercentChange(row.Value, row.Baseline); ok {
			out[i].PercentChange = FormatPercentChange(pct)
			out[i].PercentValue = pct
			out[i].Comparable = true
		}
	}
	return out
}
