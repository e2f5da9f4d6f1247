package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/huangsam/deepdive/core"
	"github.com/huangsam/deepdive/internal/backend"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/internal/outwriter"
	"github.com/huangsam/deepdive/schema"
)

// deepDiveRequest is the body of POST /api/deep-dive.
type deepDiveRequest struct {
	RequestJSON json.RawMessage `json:"request_json,omitempty"`
	System      string          `json:"system,omitempty"`
	Dimensions  []string        `json:"dimensions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDimensions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"dimensions":     s.cfg.AllowedDimensions,
		"max_dimensions": schema.MaxDimensions,
	})
}

func (s *Server) handleGetResults(w http.ResponseWriter, _ *http.Request) {
	report, err := core.LoadCachedReportOf(s.resultStore(), schema.DeepDiveReport, s.cfg.PreferredMetrics)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleClearResults(w http.ResponseWriter, _ *http.Request) {
	if err := core.ClearResults(s.resultStore()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeepDive(w http.ResponseWriter, r *http.Request) {
	var req deepDiveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid body: %v", err)})
		return
	}

	if err := contract.ValidateDimensions(req.Dimensions, s.cfg.AllowedDimensions); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(req.RequestJSON) > 0 {
		if err := core.ValidateRequestJSON(req.RequestJSON); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	cfg := s.cfg.Clone()
	if req.System != "" {
		cfg.System = req.System
	}
	ctx := core.WithSuppressHeader(r.Context())
	report, err := core.RunDeepDive(ctx, cfg, s.svc, req.RequestJSON, "", req.Dimensions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleCompare renders any response-shaped payload without calling the backend.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	shape, err := schema.DecodeResponse(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	report := core.BuildReport(core.KindOf(shape), s.cfg.System, nil, shape, s.cfg.PreferredMetrics)
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, _ *http.Request) {
	report, err := core.LoadCachedReport(s.resultStore(), s.cfg.PreferredMetrics)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(outwriter.RenderHTML(report, s.cfg))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, _ *http.Request) {
	report, err := core.LoadCachedReport(s.resultStore(), s.cfg.PreferredMetrics)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="deepdive-%s.pdf"`, report.GeneratedAt.Format("20060102-150405")))
	if err := outwriter.WriteReportPDF(w, report, s.cfg); err != nil {
		s.log.Error().Err(err).Msg("Failed to render PDF report")
	}
}

func (s *Server) resultStore() contract.ResultStore {
	if s.svc.Stores == nil {
		return nil
	}
	return s.svc.Stores.GetResultStore()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps domain and backend errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, contract.ErrNoCachedResult):
		status = http.StatusNotFound
	case errors.Is(err, contract.ErrNoRequest):
		status = http.StatusConflict
	case errors.Is(err, contract.ErrNoDimensions),
		errors.Is(err, contract.ErrUnknownDimension),
		errors.Is(err, schema.ErrUnknownShape):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
		msg = "request cancelled"
	case errors.As(err, &statusErr):
		status = http.StatusBadGateway
		msg = statusErr.Detail()
	}
	if status >= http.StatusInternalServerError {
		s.log.Warn().Err(err).Int("status", status).Msg("Request failed")
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}
