package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
)

// LoadSession reads the session slot. A missing store or slot yields an empty session.
func LoadSession(store contract.ResultStore) (schema.Session, error) {
	var session schema.Session
	if store == nil {
		return session, nil
	}
	data, ok, err := store.Get(schema.SlotSession)
	if err != nil {
		return session, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return session, nil
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return schema.Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return session, nil
}

// SaveSession writes the session slot, stamping its update time.
func SaveSession(store contract.ResultStore, session schema.Session) error {
	if store == nil {
		return nil
	}
	session.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := store.Put(schema.SlotSession, data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// storedResult is the envelope kept in a result slot. The backend response is
// kept verbatim so a cached render matches a fresh one.
type storedResult struct {
	Kind       schema.ReportKind `json:"kind"`
	System     string            `json:"system"`
	Dimensions []string          `json:"dimensions,omitempty"`
	StoredAt   time.Time         `json:"stored_at"`
	Response   json.RawMessage   `json:"response"`
}

func slotFor(kind schema.ReportKind) string {
	if kind == schema.DeepDiveReport {
		return schema.SlotDeepDiveResults
	}
	return schema.SlotAnalysisResults
}

// storeResult keeps a raw backend response in the slot for its kind.
func storeResult(store contract.ResultStore, kind schema.ReportKind, system string, dimensions []string, response []byte) error {
	if store == nil {
		return nil
	}
	data, err := json.Marshal(storedResult{
		Kind:       kind,
		System:     system,
		Dimensions: dimensions,
		StoredAt:   time.Now().UTC(),
		Response:   response,
	})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return store.Put(slotFor(kind), data)
}

// LoadCachedReport rebuilds the most specific cached result: the deep dive when
// present, otherwise the overall analysis.
func LoadCachedReport(store contract.ResultStore, preferred []string) (*schema.Report, error) {
	for _, kind := range []schema.ReportKind{schema.DeepDiveReport, schema.AnalysisReport} {
		report, err := LoadCachedReportOf(store, kind, preferred)
		if err == nil {
			return report, nil
		}
		if !errors.Is(err, contract.ErrNoCachedResult) {
			return nil, err
		}
	}
	return nil, contract.ErrNoCachedResult
}

// LoadCachedReportOf rebuilds the cached result of one kind.
func LoadCachedReportOf(store contract.ResultStore, kind schema.ReportKind, preferred []string) (*schema.Report, error) {
	if store == nil {
		return nil, contract.ErrNoCachedResult
	}
	data, ok, err := store.Get(slotFor(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to read cached result: %w", err)
	}
	if !ok {
		return nil, contract.ErrNoCachedResult
	}

	var stored storedResult
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	shape, err := schema.DecodeResponse(stored.Response)
	if err != nil {
		return nil, fmt.Errorf("cached result is unreadable: %w", err)
	}
	report := BuildReport(stored.Kind, stored.System, stored.Dimensions, shape, preferred)
	report.GeneratedAt = stored.StoredAt
	return report, nil
}

// ClearResults forgets both cached results and the uploaded request. The
// configuration state of the session is kept.
func ClearResults(store contract.ResultStore) error {
	if store == nil {
		return nil
	}
	for _, key := range []string{schema.SlotDeepDiveResults, schema.SlotAnalysisResults} {
		if err := store.Clear(key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	session, err := LoadSession(store)
	if err != nil {
		return err
	}
	session.RequestJSON = nil
	session.RequestName = ""
	return SaveSession(store, session)
}
