package contract

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/deepdive/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation; tests mutate a copy.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		BackendURL:      "http://127.0.0.1:8000/api/",
		System:          "BSS",
		Timeout:         time.Minute,
		RetryMaxElapsed: 10 * time.Second,
		Rate:            5,
		Output:          "text",
		Precision:       2,
		Color:           "yes",
		StoreBackend:    "memory",
		HistoryBackend:  "none",
		LogLevel:        "warn",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError string
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "yaml" },
			expectError: "invalid output format",
		},
		{
			name:        "binary output without file",
			mutate:      func(in *ConfigRawInput) { in.Output = "pdf" },
			expectError: "requires --output-file",
		},
		{
			name: "binary output with file",
			mutate: func(in *ConfigRawInput) {
				in.Output = "xlsx"
				in.OutputFile = "report.xlsx"
			},
		},
		{
			name:        "precision too large",
			mutate:      func(in *ConfigRawInput) { in.Precision = 9 },
			expectError: "precision must be between",
		},
		{
			name:        "zero timeout",
			mutate:      func(in *ConfigRawInput) { in.Timeout = 0 },
			expectError: "timeout must be greater than 0",
		},
		{
			name:        "negative rate",
			mutate:      func(in *ConfigRawInput) { in.Rate = -1 },
			expectError: "rate cannot be negative",
		},
		{
			name:        "bad color",
			mutate:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: "invalid --color value",
		},
		{
			name:        "bad log level",
			mutate:      func(in *ConfigRawInput) { in.LogLevel = "loud" },
			expectError: "invalid log level",
		},
		{
			name:        "backend url without scheme",
			mutate:      func(in *ConfigRawInput) { in.BackendURL = "127.0.0.1:8000" },
			expectError: "backend-url",
		},
		{
			name:        "backend url with ftp",
			mutate:      func(in *ConfigRawInput) { in.BackendURL = "ftp://host/api" },
			expectError: "must use http or https",
		},
		{
			name:        "invalid store backend",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "redis" },
			expectError: "invalid store backend",
		},
		{
			name:        "memory history not allowed",
			mutate:      func(in *ConfigRawInput) { in.HistoryBackend = "memory" },
			expectError: "invalid history backend",
		},
		{
			name:        "mysql without connection",
			mutate:      func(in *ConfigRawInput) { in.StoreBackend = "mysql" },
			expectError: "connection string is required",
		},
		{
			name: "shared sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.StoreBackend = "sqlite"
				in.HistoryBackend = "sqlite"
				in.StoreDBConnect = "/tmp/same.db"
				in.HistoryDBConnect = "/tmp/same.db"
			},
			expectError: "different SQLite database files",
		},
		{
			name:        "unknown dimension",
			mutate:      func(in *ConfigRawInput) { in.Dimension = []string{"Planet"} },
			expectError: "unknown dimension",
		},
		{
			name: "too many dimensions",
			mutate: func(in *ConfigRawInput) {
				in.Dimension = []string{"State", "Country Code", "Cookie Flag", "Data center"}
			},
			expectError: "at most 3 dimensions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	input := &ConfigRawInput{Timeout: time.Second, Color: "no", Precision: DefaultPrecision}
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, schema.DefaultSystem, cfg.System)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
	assert.Equal(t, schema.NoneBackend, cfg.HistoryBackend)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, schema.PreferredMetricOrder, cfg.PreferredMetrics)
	assert.Equal(t, schema.AvailableDimensions, cfg.AllowedDimensions)
	assert.Empty(t, cfg.Dimensions)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.False(t, cfg.UseColors)
}

func TestProcessAndValidateLists(t *testing.T) {
	input := validInput()
	input.BackendURL = "https://analysis.example.com/api/"
	input.PreferredMetrics = []string{" Profit (HB Rendered Ad) ", ""}
	input.Dimensions = []string{"Region", "Tier"}
	input.Dimension = []string{"Tier"}
	input.RequestPathStr = filepath.Join("testdata", "request.json")

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))
	assert.Equal(t, "https://analysis.example.com/api", cfg.BackendURL)
	assert.Equal(t, []string{"Profit (HB Rendered Ad)"}, cfg.PreferredMetrics)
	assert.Equal(t, []string{"Region", "Tier"}, cfg.AllowedDimensions)
	assert.Equal(t, []string{"Tier"}, cfg.Dimensions)
	assert.Equal(t, input.RequestPathStr, cfg.RequestPath)
}

func TestValidateDimensions(t *testing.T) {
	allowed := schema.AvailableDimensions

	assert.ErrorIs(t, ValidateDimensions(nil, allowed), ErrNoDimensions)
	assert.ErrorIs(t, ValidateDimensions([]string{"Nope"}, allowed), ErrUnknownDimension)
	assert.ErrorContains(t, ValidateDimensions([]string{"State", "State"}, allowed), "more than once")
	assert.NoError(t, ValidateDimensions([]string{"State", "Country Code"}, allowed))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"memory empty", schema.MemoryBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/db", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/db", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost dbname=db", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{PreferredMetrics: []string{"a"}, Dimensions: []string{"State"}}
	clone := cfg.Clone()
	clone.PreferredMetrics[0] = "b"
	clone.Dimensions = append(clone.Dimensions, "Country Code")

	assert.Equal(t, "a", cfg.PreferredMetrics[0])
	assert.Len(t, cfg.Dimensions, 1)
}
