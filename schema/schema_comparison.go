package schema

import (
	"encoding/json"
	"time"
)

// ComparisonRow is a MetricRow enriched for display.
type ComparisonRow struct {
	MetricRow

	// PercentChange is a signed percentage such as "+20.00%" or "-" when not computable.
	PercentChange string

	// Rank is the 1-based display position within its table.
	Rank int

	// Control marks the row detected as the control arm.
	Control bool

	// PercentValue holds the unformatted change when Comparable is true.
	PercentValue float64
	Comparable   bool
}

// MarshalJSON implements json.Marshaler.
func (r ComparisonRow) MarshalJSON() ([]byte, error) {
	out := r.fields()
	out["percent_change"] = r.PercentChange
	out["rank"] = r.Rank
	out["control"] = r.Control
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ComparisonRow) UnmarshalJSON(data []byte) error {
	if err := r.MetricRow.UnmarshalJSON(data); err != nil {
		return err
	}
	var derived struct {
		PercentChange string `json:"percent_change"`
		Rank          int    `json:"rank"`
		Control       bool   `json:"control"`
	}
	if err := json.Unmarshal(data, &derived); err != nil {
		return err
	}
	for _, key := range []string{"percent_change", "rank", "control"} {
		delete(r.Extra, key)
	}
	if len(r.Extra) == 0 {
		r.Extra = nil
	}
	r.PercentChange = derived.PercentChange
	r.Rank = derived.Rank
	r.Control = derived.Control
	return nil
}

// ComparisonTable is one display-ready table: a segment or the overall result.
type ComparisonTable struct {
	Title              string              `json:"title"`
	Rows               []ComparisonRow     `json:"rows"`
	ControlIndex       int                 `json:"control_index"`
	FinalVerdict       string              `json:"final_verdict,omitempty"`
	ScalabilityVerdict *ScalabilityVerdict `json:"scalability_verdict,omitempty"`
	KeyInsights        []string            `json:"key_insights,omitempty"`
}

// MetricSummary aggregates the percent change of one metric across tables.
type MetricSummary struct {
	Name   string  `json:"name"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ReportSummary holds totals over every table of a report.
type ReportSummary struct {
	TotalRows      int             `json:"total_rows"`
	ComparableRows int             `json:"comparable_rows"`
	PositiveRows   int             `json:"positive_rows"`
	NegativeRows   int             `json:"negative_rows"`
	Metrics        []MetricSummary `json:"metrics"`
}

// Report is the rendered result of one analysis or deep dive.
type Report struct {
	Kind        ReportKind        `json:"kind"`
	System      string            `json:"system,omitempty"`
	Dimensions  []string          `json:"dimensions,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Tables      []ComparisonTable `json:"tables"`
	Summary     ReportSummary     `json:"summary"`
}

// Session is the experiment state carried between commands.
type Session struct {
	RequestJSON json.RawMessage `json:"request_json,omitempty"`
	RequestName string          `json:"request_name,omitempty"`
	System      string          `json:"system,omitempty"`
	ConfigDone  bool            `json:"config_done"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasRequest reports whether an experiment request has been uploaded.
func (s Session) HasRequest() bool {
	return len(s.RequestJSON) > 0 && string(s.RequestJSON) != "null"
}
