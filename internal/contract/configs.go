package contract

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/deepdive/schema"
	"github.com/rs/zerolog"
)

// Default values for configuration.
const (
	DefaultPrecision       = 2
	MaxPrecision           = 6
	DefaultTimeout         = 5 * time.Minute
	DefaultRetryMaxElapsed = 30 * time.Second
	DefaultRate            = 5.0
	DefaultAddr            = "127.0.0.1:8080"
	DefaultHistoryLimit    = 10
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	BackendURL      string
	System          string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
	Rate            float64 // requests per second, 0 disables pacing

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel zerolog.Level

	// PreferredMetrics is the priority list for metric display order.
	PreferredMetrics []string

	// AllowedDimensions lists the dimensions a deep dive may use.
	AllowedDimensions []string

	// Dimensions is the validated selection for the current deep dive.
	Dimensions []string

	// RequestPath is the experiment request file given on the command line.
	RequestPath string

	Addr string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RequestPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	BackendURL       string        `mapstructure:"backend-url"`
	System           string        `mapstructure:"system"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryMaxElapsed  time.Duration `mapstructure:"retry-max-elapsed"`
	Rate             float64       `mapstructure:"rate"`
	Output           string        `mapstructure:"output"`
	OutputFile       string        `mapstructure:"output-file"`
	Precision        int           `mapstructure:"precision"`
	Width            int           `mapstructure:"width"`
	Color            string        `mapstructure:"color"`
	StoreBackend     string        `mapstructure:"store-backend"`
	StoreDBConnect   string        `mapstructure:"store-db-connect"`
	HistoryBackend   string        `mapstructure:"history-backend"`
	HistoryDBConnect string        `mapstructure:"history-db-connect"`
	LogLevel         string        `mapstructure:"log-level"`

	// --- Lists from the config file or comma-separated env ---
	PreferredMetrics []string `mapstructure:"preferred-metrics"`
	Dimensions       []string `mapstructure:"dimensions"`

	// --- Fields from deepdiveCmd.Flags() ---
	Dimension []string `mapstructure:"dimension"`

	// --- Fields from serveCmd.Flags() ---
	Addr string `mapstructure:"addr"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.PreferredMetrics = slices.Clone(c.PreferredMetrics)
	clone.AllowedDimensions = slices.Clone(c.AllowedDimensions)
	clone.Dimensions = slices.Clone(c.Dimensions)
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processBackendURL(cfg, input); err != nil {
		return err
	}
	if err := processOutput(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processPreferences(cfg, input); err != nil {
		return err
	}
	return processDimensions(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ValidateDimensions checks a deep-dive selection against the allowed list.
func ValidateDimensions(selected, allowed []string) error {
	if len(selected) == 0 {
		return ErrNoDimensions
	}
	if len(selected) > schema.MaxDimensions {
		return fmt.Errorf("at most %d dimensions can be selected (received %d)", schema.MaxDimensions, len(selected))
	}
	seen := make(map[string]struct{}, len(selected))
	for _, d := range selected {
		if !slices.Contains(allowed, d) {
			return fmt.Errorf("%w: %q", ErrUnknownDimension, d)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("dimension %q selected more than once", d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// validateSimpleInputs processes and validates scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.RequestPath = input.RequestPathStr
	cfg.Width = input.Width
	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	cfg.System = strings.TrimSpace(input.System)
	if cfg.System == "" {
		cfg.System = schema.DefaultSystem
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	if input.Timeout <= 0 {
		return fmt.Errorf("timeout must be greater than 0 (received %s)", input.Timeout)
	}
	cfg.Timeout = input.Timeout

	if input.RetryMaxElapsed < 0 {
		return fmt.Errorf("retry-max-elapsed cannot be negative (received %s)", input.RetryMaxElapsed)
	}
	cfg.RetryMaxElapsed = input.RetryMaxElapsed

	if input.Rate < 0 {
		return fmt.Errorf("rate cannot be negative (received %g)", input.Rate)
	}
	cfg.Rate = input.Rate

	level := zerolog.WarnLevel
	if input.LogLevel != "" {
		level, err = zerolog.ParseLevel(strings.ToLower(input.LogLevel))
		if err != nil {
			return fmt.Errorf("invalid log level '%s': %w", input.LogLevel, err)
		}
	}
	cfg.LogLevel = level

	return nil
}

// processBackendURL validates the analysis backend base URL.
func processBackendURL(cfg *Config, input *ConfigRawInput) error {
	raw := strings.TrimSpace(input.BackendURL)
	if raw == "" {
		raw = schema.DefaultBackendURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid backend-url '%s': %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend-url must use http or https (received '%s')", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("backend-url must include a host (received '%s')", raw)
	}
	cfg.BackendURL = strings.TrimRight(raw, "/")
	return nil
}

// processOutput validates the output format and file.
func processOutput(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, markdown, html, xlsx, pdf, parquet", input.Output)
	}
	if _, binary := schema.BinaryOutputModes[cfg.Output]; binary && cfg.OutputFile == "" {
		return fmt.Errorf("output format '%s' requires --output-file", cfg.Output)
	}
	return nil
}

// validateBackendConfigs validates result store and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Result Store Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, memory, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Result slots and history must not share a SQLite file
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if storePath == historyPath {
			return fmt.Errorf("result store and history must use different SQLite database files. Both resolve to %q", storePath)
		}
	}

	return nil
}

// processPreferences resolves the preferred metric order.
func processPreferences(cfg *Config, input *ConfigRawInput) error {
	cfg.PreferredMetrics = cleanList(input.PreferredMetrics)
	if len(cfg.PreferredMetrics) == 0 {
		cfg.PreferredMetrics = slices.Clone(schema.PreferredMetricOrder)
	}
	return nil
}

// processDimensions resolves the allowed dimensions and validates any selection.
func processDimensions(cfg *Config, input *ConfigRawInput) error {
	cfg.AllowedDimensions = cleanList(input.Dimensions)
	if len(cfg.AllowedDimensions) == 0 {
		cfg.AllowedDimensions = slices.Clone(schema.AvailableDimensions)
	}

	cfg.Dimensions = cleanList(input.Dimension)
	if len(cfg.Dimensions) == 0 {
		return nil
	}
	return ValidateDimensions(cfg.Dimensions, cfg.AllowedDimensions)
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
