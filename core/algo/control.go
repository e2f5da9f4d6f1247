package algo

import (
	"regexp"
	"strings"

	"github.com/huangsam/deepdive/schema"
)

// NoControl is returned when no row looks like a control arm.
const NoControl = -1

// Score contributions for a single keyword.
const (
	exactScore     = 100
	zeroSuffix     = 50
	tokenScore     = 20
	substringScore = 5
)

// controlKeywords are matched against lower-cased arm labels.
var controlKeywords = []string{"control", "ctrl", "default", "def", "0", "-ctrl"}

var zeroSuffixPattern = regexp.MustCompile(`[:_-]0$`)

// tokenPatterns holds one delimited-token pattern per entry of controlKeywords.
var tokenPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(controlKeywords))
	for i, kw := range controlKeywords {
		patterns[i] = regexp.MustCompile(`(^|[:_-])` + regexp.QuoteMeta(kw) + `($|[:_-])`)
	}
	return patterns
}()

// ControlScore scores how strongly a label looks like a control arm.
// Contributions from every keyword accumulate.
func ControlScore(label string) int {
	token := strings.ToLower(label)
	score := 0
	for i, kw := range controlKeywords {
		if token == kw {
			score += exactScore
		}
		if kw == "0" && zeroSuffixPattern.MatchString(token) {
			score += zeroSuffix
		}
		if tokenPatterns[i].MatchString(token) {
			score += tokenScore
		}
		if strings.Contains(token, kw) {
			score += substringScore
		}
	}
	return score
}

// ResolveControlLabel returns the index of the label with the strictly
// highest control score, the first one on ties, or NoControl when nothing scores.
func ResolveControlLabel(labels []string) int {
	best, bestScore := NoControl, 0
	for i, label := range labels {
		if score := ControlScore(label); score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// ResolveControlRow picks the control row among rows using their arm labels.
func ResolveControlRow(rows []schema.MetricRow) int {
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label()
	}
	return ResolveControlLabel(labels)
}
