package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownShape is returned when a payload is neither a segmented nor a flat response.
var ErrUnknownShape = errors.New("unrecognized response shape")

// ScalabilityVerdict is the backend's recommendation on scaling an experiment.
type ScalabilityVerdict struct {
	Verdict string   `json:"verdict"`
	Reasons []string `json:"reasons"`
}

// UnmarshalJSON accepts both the object form and a bare verdict string.
func (v *ScalabilityVerdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ScalabilityVerdict{Verdict: s, Reasons: []string{}}
		return nil
	}
	type plain ScalabilityVerdict
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("scalability verdict: %w", err)
	}
	*v = ScalabilityVerdict(p)
	return nil
}

// Segment is a named partition of the experiment results.
type Segment struct {
	Segment            string              `json:"segment"`
	Metrics            []MetricRow         `json:"metrics"`
	FinalVerdict       string              `json:"final_verdict,omitempty"`
	ScalabilityVerdict *ScalabilityVerdict `json:"scalability_verdict,omitempty"`
	KeyInsights        []string            `json:"key_insights,omitempty"`
}

// FlatReport is the overall (non-segmented) analysis response.
type FlatReport struct {
	MetricsTable       []MetricRow         `json:"metrics_table"`
	FinalVerdict       string              `json:"final_verdict,omitempty"`
	ScalabilityVerdict *ScalabilityVerdict `json:"scalability_verdict,omitempty"`
	KeyInsights        []string            `json:"key_insights,omitempty"`
}

// ResponseShape is one of Segmented or Flat.
type ResponseShape interface {
	isResponseShape()
}

// Segmented is a deep-dive response with one entry per segment.
type Segmented struct {
	Segments []Segment
}

// Flat is an overall analysis response with a single metrics table.
type Flat struct {
	Report FlatReport
}

func (Segmented) isResponseShape() {}
func (Flat) isResponseShape()      {}

// DecodeResponse classifies and decodes a backend payload.
func DecodeResponse(data []byte) (ResponseShape, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownShape, err)
	}

	if raw, ok := probe["segments"]; ok {
		var segments []Segment
		if err := json.Unmarshal(raw, &segments); err != nil {
			return nil, fmt.Errorf("failed to decode segments: %w", err)
		}
		return Segmented{Segments: segments}, nil
	}

	if _, ok := probe["metrics_table"]; ok {
		var report FlatReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to decode metrics table: %w", err)
		}
		return Flat{Report: report}, nil
	}

	return nil, ErrUnknownShape
}

// DeepDiveQuery is the JSON body of a deep-dive request.
type DeepDiveQuery struct {
	RequestJSON json.RawMessage `json:"request_json"`
	System      string          `json:"system"`
	Dimensions  []string        `json:"dimensions"`
}
