package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// logRunHeader prints a concise, 2-line header before a backend run.
func logRunHeader(ctx context.Context, cfg *contract.Config, kind schema.ReportKind, requestName string, dimensions []string) {
	if shouldSuppressHeader(ctx) {
		return
	}
	if requestName == "" {
		requestName = "session request"
	}

	// Line 1: what is being analyzed and by which system
	fmt.Fprintf(os.Stderr, "🔎 Request: %s (System: %s)\n", requestName, cfg.System)

	// Line 2: the kind of run
	if kind == schema.DeepDiveReport {
		fmt.Fprintf(os.Stderr, "🧭 Deep dive by: %s\n", strings.Join(dimensions, ", "))
		return
	}
	fmt.Fprintf(os.Stderr, "📊 Overall analysis via %s\n", cfg.BackendURL)
}
