// Package algo has the metric comparison logic: control row detection,
// percent change and display ordering.
package algo

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/huangsam/deepdive/schema"
)

// numericPrefix matches the longest leading decimal literal of a string.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber extracts a finite float from a measure. Numbers parse as-is,
// strings parse their leading numeric prefix ("12.5%" is 12.5), and
// everything else fails.
func ParseNumber(m schema.Measure) (float64, bool) {
	switch m.Kind() {
	case schema.MeasureNumber:
		text, _ := m.Text()
		return finite(strconv.ParseFloat(text, 64))
	case schema.MeasureString:
		text, _ := m.Text()
		return parseLeadingFloat(text)
	default:
		return 0, false
	}
}

// parseLeadingFloat parses the numeric prefix of s after leading whitespace.
func parseLeadingFloat(s string) (float64, bool) {
	match := numericPrefix.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	return finite(strconv.ParseFloat(match, 64))
}

func finite(v float64, err error) (float64, bool) {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
