// Package schema has models and constants shared by all parts of deepdive.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MeasureKind classifies the JSON representation of a Measure.
type MeasureKind int

// Measure kinds.
const (
	MeasureMissing MeasureKind = iota
	MeasureNull
	MeasureNumber
	MeasureString
	MeasureOther
)

// Measure is an opaque metric measurement. The backend may send a number,
// a string, null or nothing at all, and the raw form is kept so it can be
// re-emitted untouched.
type Measure struct {
	raw json.RawMessage
}

// NumberMeasure builds a Measure holding a JSON number.
func NumberMeasure(v float64) Measure {
	return Measure{raw: json.RawMessage(strconv.FormatFloat(v, 'f', -1, 64))}
}

// StringMeasure builds a Measure holding a JSON string.
func StringMeasure(s string) Measure {
	b, _ := json.Marshal(s)
	return Measure{raw: b}
}

// RawMeasure wraps an already encoded JSON value.
func RawMeasure(raw json.RawMessage) Measure {
	if len(raw) == 0 {
		return Measure{}
	}
	return Measure{raw: append(json.RawMessage(nil), raw...)}
}

// Raw returns the encoded JSON value, or nil when the measure is missing.
func (m Measure) Raw() json.RawMessage {
	return m.raw
}

// Kind reports how the measure was encoded.
func (m Measure) Kind() MeasureKind {
	trimmed := bytes.TrimSpace(m.raw)
	if len(trimmed) == 0 {
		return MeasureMissing
	}
	switch c := trimmed[0]; {
	case c == 'n':
		return MeasureNull
	case c == '"':
		return MeasureString
	case c == '-' || (c >= '0' && c <= '9'):
		return MeasureNumber
	default:
		return MeasureOther
	}
}

// Text returns the measure as plain text: the literal of a number, the
// content of a string, and false for anything else.
func (m Measure) Text() (string, bool) {
	switch m.Kind() {
	case MeasureNumber:
		return string(bytes.TrimSpace(m.raw)), true
	case MeasureString:
		var s string
		if err := json.Unmarshal(m.raw, &s); err != nil {
			return "", false
		}
		return s, true
	default:
		return "", false
	}
}

// Display renders the measure for tables: numbers with the given precision,
// strings verbatim and missing values as "-".
func (m Measure) Display(precision int) string {
	switch m.Kind() {
	case MeasureMissing, MeasureNull:
		return "-"
	case MeasureNumber:
		text, _ := m.Text()
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return text
		}
		return strconv.FormatFloat(v, 'f', precision, 64)
	case MeasureString:
		text, _ := m.Text()
		return text
	default:
		return string(m.raw)
	}
}

// MarshalJSON implements json.Marshaler.
func (m Measure) MarshalJSON() ([]byte, error) {
	if len(m.raw) == 0 {
		return []byte("null"), nil
	}
	return m.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Measure) UnmarshalJSON(data []byte) error {
	m.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MetricRow is one measured metric within a segment or a flat metrics table.
type MetricRow struct {
	Name             string
	Value            Measure
	Baseline         Measure
	Change           Measure
	Significance     Significance
	ExperimentTokens string
	Bucket           string

	// Extra holds every key the backend sent that has no dedicated field.
	Extra map[string]json.RawMessage
}

// Field names of a MetricRow on the wire.
const (
	fieldName             = "name"
	fieldValue            = "value"
	fieldBaseline         = "baseline"
	fieldChange           = "change"
	fieldSignificance     = "significance"
	fieldExperimentTokens = "Experiment Tokens"
	fieldBucket           = "bucket"
)

// Label is the free-text arm label used for control row detection.
func (r MetricRow) Label() string {
	if r.ExperimentTokens != "" {
		return r.ExperimentTokens
	}
	return r.Bucket
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *MetricRow) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("metric row: %w", err)
	}
	*r = MetricRow{}
	for key, raw := range fields {
		switch key {
		case fieldName:
			r.Name = labelText(raw)
		case fieldValue:
			r.Value = RawMeasure(raw)
		case fieldBaseline:
			r.Baseline = RawMeasure(raw)
		case fieldChange:
			r.Change = RawMeasure(raw)
		case fieldSignificance:
			r.Significance = Significance(labelText(raw))
		case fieldExperimentTokens:
			r.ExperimentTokens = labelText(raw)
		case fieldBucket:
			r.Bucket = labelText(raw)
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]json.RawMessage)
			}
			r.Extra[key] = raw
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r MetricRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields())
}

// fields flattens the row back into its wire representation.
func (r MetricRow) fields() map[string]any {
	out := make(map[string]any, len(r.Extra)+7)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[fieldName] = r.Name
	if r.Value.Kind() != MeasureMissing {
		out[fieldValue] = r.Value
	}
	if r.Baseline.Kind() != MeasureMissing {
		out[fieldBaseline] = r.Baseline
	}
	if r.Change.Kind() != MeasureMissing {
		out[fieldChange] = r.Change
	}
	if r.Significance != SignificanceNone {
		out[fieldSignificance] = r.Significance
	}
	if r.ExperimentTokens != "" {
		out[fieldExperimentTokens] = r.ExperimentTokens
	}
	if r.Bucket != "" {
		out[fieldBucket] = r.Bucket
	}
	return out
}

// labelText turns a JSON scalar into label text. Falsy scalars (null, false,
// 0 and "") become empty so they fall through to the next label source.
func labelText(raw json.RawMessage) string {
	m := Measure{raw: raw}
	switch m.Kind() {
	case MeasureString:
		s, _ := m.Text()
		return s
	case MeasureNumber:
		s, _ := m.Text()
		if v, err := strconv.ParseFloat(s, 64); err == nil && v == 0 {
			return ""
		}
		return s
	case MeasureMissing, MeasureNull:
		return ""
	default:
		trimmed := string(bytes.TrimSpace(raw))
		if trimmed == "false" {
			return ""
		}
		return trimmed
	}
}
