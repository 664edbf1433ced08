package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "GENBEA"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// SecurityConfig contains the shared-secret gate and rate limiting.
// Exactly one of AccessSecret or AccessSecretHash (bcrypt) must be set.
type SecurityConfig struct {
	AccessSecret     string          `yaml:"access_secret" envconfig:"ACCESS_SECRET"`
	AccessSecretHash string          `yaml:"access_secret_hash" envconfig:"ACCESS_SECRET_HASH"`
	SessionTTL       time.Duration   `yaml:"session_ttl" envconfig:"SESSION_TTL"`
	RateLimit        RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// DatasetConfig names the workbook conventions the dashboard relies on.
type DatasetConfig struct {
	FilePrefix          string   `yaml:"file_prefix" envconfig:"FILE_PREFIX"`
	PrimarySheet        string   `yaml:"primary_sheet" envconfig:"PRIMARY_SHEET"`
	IdentifierColumn    string   `yaml:"identifier_column" envconfig:"IDENTIFIER_COLUMN"`
	TrackedColumns      []string `yaml:"tracked_columns" envconfig:"TRACKED_COLUMNS"`
	MissingSentinel     string   `yaml:"missing_sentinel" envconfig:"MISSING_SENTINEL"`
	ExtractionSheet     string   `yaml:"extraction_sheet" envconfig:"EXTRACTION_SHEET"`
	PurityColumns       []string `yaml:"purity_columns" envconfig:"PURITY_COLUMNS"`
	ConcentrationColumn string   `yaml:"concentration_column" envconfig:"CONCENTRATION_COLUMN"`
}

// CacheConfig controls the workbook cache.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES"`
}

// TelemetryConfig controls OpenTelemetry exporters.
type TelemetryConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// ReportConfig controls the generated document.
type ReportConfig struct {
	Title string `yaml:"title" envconfig:"TITLE"`
}

// Load builds the configuration from defaults, then the YAML file if one
// exists, then environment variables. Later sources win.
func Load() (*Config, error) {
	return load(true)
}

// LoadOffline is Load for tools that never serve HTTP. The access secret is
// not required.
func LoadOffline() (*Config, error) {
	return load(false)
}

func load(requireSecret bool) (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	// No default tags on the structs: envconfig leaves unset variables alone.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(requireSecret); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate(requireSecret bool) error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if requireSecret && c.Security.AccessSecret == "" && c.Security.AccessSecretHash == "" {
		return fmt.Errorf("an access secret or access secret hash must be configured")
	}

	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if c.Dataset.PrimarySheet == "" || c.Dataset.IdentifierColumn == "" {
		return fmt.Errorf("primary sheet and identifier column are required")
	}

	if len(c.Dataset.TrackedColumns) == 0 {
		return fmt.Errorf("at least one tracked column must be configured")
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", c.Telemetry.TraceExporter)
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "genbea.log")
	}

	return nil
}

// Validate exposes validation for callers that assemble a Config by hand.
func (c *Config) Validate() error {
	return c.validate(true)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8501,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  45 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			SessionTTL: DefaultSessionTTL,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "console",
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
			LogsDir: DefaultLogsDir,
		},
		Dataset: DatasetConfig{
			FilePrefix:          DefaultFilePrefix,
			PrimarySheet:        DefaultPrimarySheet,
			IdentifierColumn:    DefaultIdentifierColumn,
			TrackedColumns:      append([]string(nil), DefaultTrackedColumns...),
			MissingSentinel:     DefaultMissingSentinel,
			ExtractionSheet:     DefaultExtractionSheet,
			PurityColumns:       append([]string(nil), DefaultPurityColumns...),
			ConcentrationColumn: DefaultConcentrationColumn,
		},
		Cache: CacheConfig{
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheEntries,
		},
		Telemetry: TelemetryConfig{
			Environment:   "development",
			TraceExporter: "none",
			EnableMetrics: true,
			SampleRatio:   1.0,
		},
		Report: ReportConfig{
			Title: DefaultReportTitle,
		},
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
