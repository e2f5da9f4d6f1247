package algo

import (
	"slices"

	"github.com/huangsam/deepdive/schema"
)

// OrderMetricNames lists preferred names present in names (in preferred
// order) followed by the remaining names sorted ascending. Each name appears once.
func OrderMetricNames(names []string, preferred []string) []string {
	present := make(map[string]struct{}, len(names))
	for _, n := range names {
		present[n] = struct{}{}
	}

	ordered := make([]string, 0, len(present))
	taken := make(map[string]struct{}, len(present))
	for _, p := range preferred {
		if _, ok := present[p]; !ok {
			continue
		}
		if _, dup := taken[p]; dup {
			continue
		}
		ordered = append(ordered, p)
		taken[p] = struct{}{}
	}

	rest := make([]string, 0, len(present)-len(taken))
	for n := range present {
		if _, ok := taken[n]; !ok {
			rest = append(rest, n)
		}
	}
	slices.Sort(rest)

	return append(ordered, rest...)
}

// OrderRows stably reorders rows by the position of their name in
// OrderMetricNames. Rows sharing a name keep their relative order.
func OrderRows(rows []schema.ComparisonRow, preferred []string) []schema.ComparisonRow {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	position := make(map[string]int, len(rows))
	for i, n := range OrderMetricNames(names, preferred) {
		position[n] = i
	}

	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b schema.ComparisonRow) int {
		return position[a.Name] - position[b.Name]
	})
	return out
}

// BuildComparisonTable turns raw rows into ranked, ordered comparison rows and
// reports the position of the detected control row (or NoControl).
func BuildComparisonTable(rows []schema.MetricRow, preferred []string) ([]schema.ComparisonRow, int) {
	enriched := ComputePercentChange(rows)
	if idx := ResolveControlRow(rows); idx != NoControl {
		enriched[idx].Control = true
	}

	ordered := OrderRows(enriched, preferred)
	control := NoControl
	for i := range ordered {
		ordered[i].Rank = i + 1
		if ordered[i].Control {
			control = i
		}
	}
	return ordered, control
}
