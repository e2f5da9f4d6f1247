package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/deepdive/internal/backend"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// ReadRequestFile loads an experiment request and checks that it is a JSON object.
func ReadRequestFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	if err := ValidateRequestJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// ValidateRequestJSON checks that data is a single JSON object.
func ValidateRequestJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid JSON request: %w", err)
	}
	if obj == nil {
		return errors.New("invalid JSON request: expected an object")
	}
	return nil
}

// compactJSON strips insignificant whitespace so the session copy stays small.
func compactJSON(data []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return json.RawMessage(data)
	}
	return json.RawMessage(buf.Bytes())
}

// resultStore returns the configured result store or nil.
func resultStore(svc *Services) contract.ResultStore {
	if svc.Stores == nil {
		return nil
	}
	return svc.Stores.GetResultStore()
}

// backendFailure maps cancellations to context.Canceled and keeps other errors.
func backendFailure(err error) error {
	if backend.IsCancellation(err) {
		log := contract.ComponentLogger("core")
		log.Debug().Err(err).Msg("Backend call cancelled")
		return context.Canceled
	}
	return err
}

// RunAnalysis submits a request for the overall analysis and caches the response.
// The request is remembered in the session for later deep dives.
func RunAnalysis(ctx context.Context, cfg *contract.Config, svc *Services, requestJSON []byte, requestName string) (*schema.Report, error) {
	if len(requestJSON) == 0 {
		return nil, contract.ErrNoRequest
	}
	if err := ValidateRequestJSON(requestJSON); err != nil {
		return nil, err
	}
	store := resultStore(svc)

	session, err := LoadSession(store)
	if err != nil {
		return nil, err
	}
	session.RequestJSON = compactJSON(requestJSON)
	session.RequestName = requestName
	session.System = cfg.System
	if err := SaveSession(store, session); err != nil {
		return nil, err
	}

	logRunHeader(ctx, cfg, schema.AnalysisReport, requestName, nil)
	tracker := beginRun(svc.Stores, schema.AnalysisReport, cfg.System, nil)

	data, err := svc.Client.AnalyzeRequest(ctx, requestJSON, cfg.System)
	if err != nil {
		tracker.end(nil, err)
		return nil, backendFailure(err)
	}
	report, err := decodeAndStore(store, schema.AnalysisReport, cfg, nil, data)
	tracker.end(report, err)
	return report, err
}

// RunDeepDive segments the experiment by the given dimensions and caches the response.
// An empty requestJSON falls back to the request remembered in the session.
func RunDeepDive(ctx context.Context, cfg *contract.Config, svc *Services, requestJSON []byte, requestName string, dimensions []string) (*schema.Report, error) {
	if err := contract.ValidateDimensions(dimensions, cfg.AllowedDimensions); err != nil {
		return nil, err
	}
	store := resultStore(svc)

	session, err := LoadSession(store)
	if err != nil {
		return nil, err
	}
	if len(requestJSON) > 0 {
		if err := ValidateRequestJSON(requestJSON); err != nil {
			return nil, err
		}
		session.RequestJSON = compactJSON(requestJSON)
		session.RequestName = requestName
		session.System = cfg.System
		if err := SaveSession(store, session); err != nil {
			return nil, err
		}
	}
	if !session.HasRequest() {
		return nil, contract.ErrNoRequest
	}

	logRunHeader(ctx, cfg, schema.DeepDiveReport, session.RequestName, dimensions)
	tracker := beginRun(svc.Stores, schema.DeepDiveReport, cfg.System, dimensions)

	data, err := svc.Client.DeepDive(ctx, schema.DeepDiveQuery{
		RequestJSON: session.RequestJSON,
		System:      cfg.System,
		Dimensions:  dimensions,
	})
	if err != nil {
		tracker.end(nil, err)
		return nil, backendFailure(err)
	}
	report, err := decodeAndStore(store, schema.DeepDiveReport, cfg, dimensions, data)
	tracker.end(report, err)
	return report, err
}

// decodeAndStore classifies a backend response, caches it and builds the report.
func decodeAndStore(store contract.ResultStore, kind schema.ReportKind, cfg *contract.Config, dimensions []string, data []byte) (*schema.Report, error) {
	shape, err := schema.DecodeResponse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}
	if err := storeResult(store, kind, cfg.System, dimensions, data); err != nil {
		contract.LogWarn("Failed to cache result", err)
	}
	return BuildReport(kind, cfg.System, dimensions, shape, cfg.PreferredMetrics), nil
}

// ExecuteAnalyze runs the overall analysis for the request file, or the session
// request when no file is given, and prints the report.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, svc *Services) error {
	start := time.Now()
	requestJSON, requestName, err := requestFromConfig(cfg, svc)
	if err != nil {
		return err
	}
	report, err := RunAnalysis(ctx, cfg, svc, requestJSON, requestName)
	if err != nil {
		return err
	}
	return svc.Writer.WriteReport(report, cfg, time.Since(start))
}

// ExecuteDeepDive runs a segmented analysis by the configured dimensions and prints the report.
func ExecuteDeepDive(ctx context.Context, cfg *contract.Config, svc *Services) error {
	start := time.Now()
	var requestJSON []byte
	var requestName string
	if cfg.RequestPath != "" {
		data, err := ReadRequestFile(cfg.RequestPath)
		if err != nil {
			return err
		}
		requestJSON, requestName = data, filepath.Base(cfg.RequestPath)
	}
	report, err := RunDeepDive(ctx, cfg, svc, requestJSON, requestName, cfg.Dimensions)
	if err != nil {
		return err
	}
	return svc.Writer.WriteReport(report, cfg, time.Since(start))
}

// requestFromConfig reads the request file, falling back to the session request.
func requestFromConfig(cfg *contract.Config, svc *Services) ([]byte, string, error) {
	if cfg.RequestPath != "" {
		data, err := ReadRequestFile(cfg.RequestPath)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(cfg.RequestPath), nil
	}
	session, err := LoadSession(resultStore(svc))
	if err != nil {
		return nil, "", err
	}
	if !session.HasRequest() {
		return nil, "", contract.ErrNoRequest
	}
	return session.RequestJSON, session.RequestName, nil
}
