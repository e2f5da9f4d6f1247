//go:build basic

// Package integration contains integration tests for deepdive.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/huangsam/deepdive/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatResponse = `{
  "metrics_table": [
    {"name": "Bid Price (HB Rendered Ad)", "value": 0.9, "baseline": 1.0, "Experiment Tokens": "exp:1"},
    {"name": "Profit (HB Rendered Ad)", "value": 100, "baseline": 100, "Experiment Tokens": "exp:0"}
  ]
}`

const segmentedResponse = `{
  "segments": [
    {"segment": "Country Code: US", "metrics": [
      {"name": "Profit (HB Rendered Ad)", "value": 40, "baseline": 40, "bucket": "default"},
      {"name": "Profit (HB Rendered Ad)", "value": 50, "baseline": 40, "bucket": "treatment"}
    ]},
    {"segment": "Country Code: CA", "metrics": [
      {"name": "Profit (HB Rendered Ad)", "value": 0, "baseline": 0, "bucket": "control"}
    ]}
  ]
}`

func decodeReport(t *testing.T, out string) schema.Report {
	t.Helper()
	var report schema.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report), "stdout: %s", out)
	return report
}

// TestRenderVerification renders a saved response and checks control detection end to end.
func TestRenderVerification(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "response.json")
	require.NoError(t, os.WriteFile(path, []byte(segmentedResponse), 0o600))

	out, err := runDeepdive(t, home, nil, "render", path, "--output", "json", "--store-backend", "none")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, schema.DeepDiveReport, report.Kind)
	require.Len(t, report.Tables, 2)

	us := report.Tables[0]
	assert.Equal(t, "Country Code: US", us.Title)
	assert.Equal(t, 0, us.ControlIndex)
	assert.Equal(t, "+25.00%", us.Rows[1].PercentChange)

	ca := report.Tables[1]
	assert.Equal(t, "-", ca.Rows[0].PercentChange, "zero baseline is not comparable")
}

// TestAnalyzeAgainstFakeBackend drives analyze, results show and deepdive against a local fake service.
func TestAnalyzeAgainstFakeBackend(t *testing.T) {
	var deepDives atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/ping":
			w.WriteHeader(http.StatusOK)
		case "/api/analyze-request":
			_, _ = io.WriteString(w, flatResponse)
		case "/api/deep-dive-query":
			deepDives.Add(1)
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "Country Code") {
				http.Error(w, `{"detail": "missing dimension"}`, http.StatusBadRequest)
				return
			}
			_, _ = io.WriteString(w, segmentedResponse)
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	home := t.TempDir()
	requestPath := filepath.Join(home, "request.json")
	require.NoError(t, os.WriteFile(requestPath, []byte(`{"experiment": "exp-1"}`), 0o600))
	env := []string{
		"DEEPDIVE_BACKEND_URL=" + backend.URL + "/api",
		"DEEPDIVE_OUTPUT=json",
		"DEEPDIVE_RETRY_MAX_ELAPSED=0s",
	}

	_, err := runDeepdive(t, home, env, "ping")
	require.NoError(t, err)

	out, err := runDeepdive(t, home, env, "analyze", requestPath)
	require.NoError(t, err)
	report := decodeReport(t, out)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, 1, report.Tables[0].ControlIndex, "exp:0 is the control")

	// The request is remembered for the deep dive
	out, err = runDeepdive(t, home, env, "deepdive", "-d", "Country Code")
	require.NoError(t, err)
	report = decodeReport(t, out)
	assert.Equal(t, schema.DeepDiveReport, report.Kind)
	assert.Equal(t, int32(1), deepDives.Load())

	out, err = runDeepdive(t, home, env, "results", "show")
	require.NoError(t, err)
	assert.Equal(t, schema.DeepDiveReport, decodeReport(t, out).Kind)

	_, err = runDeepdive(t, home, env, "results", "clear")
	require.NoError(t, err)
	_, err = runDeepdive(t, home, env, "results", "show")
	assert.Error(t, err, "nothing cached after clear")
}

// TestDimensionsAndVersion checks the commands that need no backend.
func TestDimensionsAndVersion(t *testing.T) {
	home := t.TempDir()

	out, err := runDeepdive(t, home, nil, "dimensions", "--store-backend", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "Country Code")

	// version prints through cobra, which writes to stderr
	_, err = runDeepdive(t, home, nil, "version")
	require.NoError(t, err)
}
