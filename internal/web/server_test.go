package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/deepdive/core"
	"github.com/huangsam/deepdive/internal/backend"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/internal/iocache"
	"github.com/huangsam/deepdive/internal/outwriter"
	"github.com/huangsam/deepdive/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const segmentedResponse = `{"segments": [
  {"segment": "State: CA", "metrics": [
    {"name": "Profit (HB Rendered Ad)", "value": 10, "baseline": 8, "bucket": "ctrl"},
    {"name": "Profit (HB Rendered Ad)", "value": 12, "baseline": 8, "bucket": "test"}
  ]}
]}`

type fixture struct {
	server *httptest.Server
	client *backend.MockAnalysisClient
	store  *iocache.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &contract.Config{
		System:            "BSS",
		Output:            schema.TextOut,
		Precision:         contract.DefaultPrecision,
		PreferredMetrics:  schema.PreferredMetricOrder,
		AllowedDimensions: schema.AvailableDimensions,
	}
	client := &backend.MockAnalysisClient{}
	store := iocache.NewMemoryStore()
	svc := &core.Services{
		Client: client,
		Stores: iocache.NewStoreManager(store, nil),
		Writer: outwriter.NewOutWriter(),
	}
	srv := httptest.NewServer(NewServer(cfg, svc).Handler())
	t.Cleanup(srv.Close)
	return &fixture{server: srv, client: client, store: store}
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthAndDimensions(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))

	resp = f.do(t, http.MethodGet, "/api/dimensions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Dimensions    []string `json:"dimensions"`
		MaxDimensions int      `json:"max_dimensions"`
	}](t, resp)
	assert.Equal(t, schema.AvailableDimensions, body.Dimensions)
	assert.Equal(t, schema.MaxDimensions, body.MaxDimensions)
}

func TestResultsNotFoundWhenEmpty(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/results", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "no cached result")

	resp = f.do(t, http.MethodGet, "/report", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeepDiveFlow(t *testing.T) {
	f := newFixture(t)
	f.client.On("DeepDive", mock.Anything, mock.MatchedBy(func(q schema.DeepDiveQuery) bool {
		return q.System == "DSP" && len(q.Dimensions) == 1 && q.Dimensions[0] == "State"
	})).Return([]byte(segmentedResponse), nil)

	resp := f.do(t, http.MethodPost, "/api/deep-dive", `{"request_json": {"exp": 1}, "system": "DSP", "dimensions": ["State"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[schema.Report](t, resp)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, "State: CA", report.Tables[0].Title)
	assert.Equal(t, 0, report.Tables[0].ControlIndex)
	assert.Equal(t, "+50.00%", report.Tables[0].Rows[1].PercentChange)
	f.client.AssertExpectations(t)

	resp = f.do(t, http.MethodGet, "/api/results", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cached := decode[schema.Report](t, resp)
	assert.Equal(t, schema.DeepDiveReport, cached.Kind)

	resp = f.do(t, http.MethodGet, "/report", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	var html bytes.Buffer
	_, _ = html.ReadFrom(resp.Body)
	assert.Contains(t, html.String(), "State: CA")

	resp = f.do(t, http.MethodGet, "/report.pdf", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	var pdf bytes.Buffer
	_, _ = pdf.ReadFrom(resp.Body)
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")))

	resp = f.do(t, http.MethodDelete, "/api/results", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/results", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeepDiveErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"no dimensions", `{"request_json": {}, "dimensions": []}`, http.StatusBadRequest},
		{"unknown dimension", `{"request_json": {}, "dimensions": ["Planet"]}`, http.StatusBadRequest},
		{"too many dimensions", `{"request_json": {}, "dimensions": ["State", "Country Code", "Data center", "Cookie Flag"]}`, http.StatusBadRequest},
		{"request not an object", `{"request_json": [1], "dimensions": ["State"]}`, http.StatusBadRequest},
		{"no session request", `{"dimensions": ["State"]}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/deep-dive", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
	f.client.AssertNotCalled(t, "DeepDive", mock.Anything, mock.Anything)
}

func TestDeepDiveBackendErrors(t *testing.T) {
	f := newFixture(t)
	f.client.On("DeepDive", mock.Anything, mock.Anything).
		Return(nil, &backend.StatusError{StatusCode: 400, Body: `{"detail": "Invalid system"}`}).Once()
	f.client.On("DeepDive", mock.Anything, mock.Anything).
		Return(nil, &backend.StatusError{StatusCode: 500, Body: "Konom fetch failed"}).Once()

	resp := f.do(t, http.MethodPost, "/api/deep-dive", `{"request_json": {}, "dimensions": ["State"]}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Invalid system", decode[errorResponse](t, resp).Error)

	resp = f.do(t, http.MethodPost, "/api/deep-dive", `{"dimensions": ["State"]}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "request cancelled", decode[errorResponse](t, resp).Error)
}

func TestCompare(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/compare", `{"metrics_table": [
		{"name": "Zeta", "value": 3, "baseline": 4, "Experiment Tokens": "exp:0"},
		{"name": "Bid Price (HB Rendered Ad)", "value": "n/a", "baseline": 1}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[schema.Report](t, resp)
	assert.Equal(t, schema.AnalysisReport, report.Kind)
	require.Len(t, report.Tables, 1)
	rows := report.Tables[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "Bid Price (HB Rendered Ad)", rows[0].Name)
	assert.Equal(t, "-", rows[0].PercentChange)
	assert.Equal(t, "-25.00%", rows[1].PercentChange)
	assert.True(t, rows[1].Control)

	resp = f.do(t, http.MethodPost, "/api/compare", `{"rows": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	f.client.AssertNotCalled(t, "AnalyzeRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := NewServer(&contract.Config{}, &core.Services{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
