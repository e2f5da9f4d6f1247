package outwriter

import (
	"os"

	"github.com/huangsam/deepdive/internal/contract"
	"golang.org/x/term"
)

// GetMaxTableNameWidth calculates the maximum width for metric names in table output
// based on terminal width and table configuration.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Arm + Value + Baseline + Change + Significance with borders/padding
	baseWidth := 75

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 50 {
		return 50
	}
	return available
}

// maxArmWidth bounds the arm label column.
const maxArmWidth = 24
