package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/deepdive/schema"
)

// Color variables for console output.
var (
	PositiveColor = color.New(color.FgGreen, color.Bold) // PositiveColor marks a significant improvement.
	NegativeColor = color.New(color.FgRed, color.Bold)   // NegativeColor marks a significant regression.
	ControlColor  = color.New(color.FgCyan)              // ControlColor marks the control arm.
	MutedColor    = color.New(color.FgHiBlack)           // MutedColor is for values that cannot be compared.
)

// SignificanceLabel returns a short plain label for a significance tag.
func SignificanceLabel(s schema.Significance) string {
	switch s {
	case schema.SignificancePositive:
		return "Positive"
	case schema.SignificanceNegative:
		return "Negative"
	default:
		return "-"
	}
}

// ColorizeBySignificance paints text in the color associated with a significance tag.
func ColorizeBySignificance(s schema.Significance, text string) string {
	switch s {
	case schema.SignificancePositive:
		return PositiveColor.Sprint(text)
	case schema.SignificanceNegative:
		return NegativeColor.Sprint(text)
	default:
		return text
	}
}

// ColorizeChange paints a formatted percent change by its sign.
func ColorizeChange(pct string) string {
	switch {
	case pct == "" || pct == "-":
		return MutedColor.Sprint(pct)
	case strings.HasPrefix(pct, "-"):
		return NegativeColor.Sprint(pct)
	case strings.HasPrefix(pct, "+0.00"):
		return pct
	default:
		return PositiveColor.Sprint(pct)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Log().Debug().Err(err).Msg(msg)
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	Log().Warn().Err(err).Msg(msg)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for result slots.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".deepdive_results.db"
	}
	return filepath.Join(homeDir, ".deepdive_results.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".deepdive_history.db"
	}
	return filepath.Join(homeDir, ".deepdive_history.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
