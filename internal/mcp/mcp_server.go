// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/deepdive/core"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the deepdive MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, svc *core.Services) *server.MCPServer {
	s := server.NewMCPServer(
		"Deepdive Experiment Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		svc:     svc,
	}

	// --- 1. Tool: compare_metrics ---
	s.AddTool(mcp.NewTool("compare_metrics",
		mcp.WithDescription("Build comparison tables from an analysis or deep-dive response: detect the control arm, compute percent change and order metrics."),
		mcp.WithString("response_json", mcp.Description("The backend response as JSON, with either a 'segments' or a 'metrics_table' key."), mcp.Required()),
	), h.handleCompareMetrics)

	// --- 2. Tool: resolve_control_row ---
	s.AddTool(mcp.NewTool("resolve_control_row",
		mcp.WithDescription("Pick which arm label looks like the control arm. Returns -1 when none does."),
		mcp.WithArray("labels", mcp.Description("Arm labels in row order (Experiment Tokens or bucket)."), mcp.WithStringItems(), mcp.Required()),
	), h.handleResolveControlRow)

	// --- 3. Tool: order_metric_names ---
	s.AddTool(mcp.NewTool("order_metric_names",
		mcp.WithDescription("Order metric names for display: preferred metrics first, the rest alphabetically."),
		mcp.WithArray("names", mcp.Description("Metric names to order."), mcp.WithStringItems(), mcp.Required()),
		mcp.WithArray("preferred", mcp.Description("Priority list (defaults to the configured preferred metrics)."), mcp.WithStringItems()),
	), h.handleOrderMetricNames)

	// --- 4. Tool: deep_dive ---
	s.AddTool(mcp.NewTool("deep_dive",
		mcp.WithDescription("Segment the current experiment by up to three dimensions using the analysis backend."),
		mcp.WithArray("dimensions", mcp.Description("Dimensions to segment by."), mcp.WithStringItems(), mcp.Required()),
		mcp.WithString("request_json", mcp.Description("Experiment request JSON (defaults to the request of the current session).")),
		mcp.WithString("system", mcp.Description("System name sent to the backend.")),
	), h.handleDeepDive)

	// --- 5. Tool: get_results ---
	s.AddTool(mcp.NewTool("get_results",
		mcp.WithDescription("Return the most recent cached deep dive, or the overall analysis when no deep dive was run."),
	), h.handleGetResults)

	return s
}

// StartMCPServer starts the deepdive MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, svc *core.Services) error {
	s := NewMCPServer(baseCfg, svc)
	return server.ServeStdio(s)
}
