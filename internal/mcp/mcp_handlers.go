package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/deepdive/core"
	"github.com/huangsam/deepdive/core/algo"
	"github.com/huangsam/deepdive/internal/backend"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svc     *core.Services
}

// controlResult is the payload of resolve_control_row.
type controlResult struct {
	Index int    `json:"index"`
	Label string `json:"label,omitempty"`
}

func (h *toolHandler) handleCompareMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("response_json", "")
	if raw == "" {
		return mcp.NewToolResultError("response_json is required"), nil
	}

	shape, err := schema.DecodeResponse([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid response: %v", err)), nil
	}

	report := core.BuildReport(core.KindOf(shape), h.baseCfg.System, nil, shape, h.baseCfg.PreferredMetrics)
	return jsonResult(report)
}

func (h *toolHandler) handleResolveControlRow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	labels := request.GetStringSlice("labels", nil)
	if len(labels) == 0 {
		return mcp.NewToolResultError("labels must contain at least one label"), nil
	}

	result := controlResult{Index: algo.ResolveControlLabel(labels)}
	if result.Index != algo.NoControl {
		result.Label = labels[result.Index]
	}
	return jsonResult(result)
}

func (h *toolHandler) handleOrderMetricNames(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := request.GetStringSlice("names", nil)
	preferred := request.GetStringSlice("preferred", h.baseCfg.PreferredMetrics)
	return jsonResult(algo.OrderMetricNames(names, preferred))
}

func (h *toolHandler) handleDeepDive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if s := request.GetString("system", ""); s != "" {
		cfg.System = s
	}
	dimensions := request.GetStringSlice("dimensions", nil)

	var requestJSON []byte
	if r := request.GetString("request_json", ""); r != "" {
		requestJSON = []byte(r)
	}

	report, err := core.RunDeepDive(core.WithSuppressHeader(ctx), cfg, h.svc, requestJSON, "mcp", dimensions)
	if err != nil {
		return mcp.NewToolResultError(describeFailure("deep dive failed", err)), nil
	}
	return jsonResult(report)
}

func (h *toolHandler) handleGetResults(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var store contract.ResultStore
	if h.svc.Stores != nil {
		store = h.svc.Stores.GetResultStore()
	}
	report, err := core.LoadCachedReport(store, h.baseCfg.PreferredMetrics)
	if err != nil {
		return mcp.NewToolResultError(describeFailure("no results", err)), nil
	}
	return jsonResult(report)
}

// describeFailure prefers the backend's detail message over the raw status line.
func describeFailure(prefix string, err error) string {
	var statusErr *backend.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("%s: backend returned %d: %s", prefix, statusErr.StatusCode, statusErr.Detail())
	}
	if errors.Is(err, context.Canceled) {
		return prefix + ": cancelled"
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
