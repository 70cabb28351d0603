// Package config handles configuration loading for ratiobench.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// RATIOBENCH_DATASOURCE_PRIMARY.
const EnvPrefix = "RATIOBENCH"

// Known data source and report format names.
var (
	Providers     = []string{"yfinance", "screener"}
	ReportFormats = []string{"text", "markdown", "html", "json", "yaml"}
)

// Config represents the complete application configuration.
type Config struct {
	DataSource DataSourceConfig `mapstructure:"datasource" yaml:"datasource"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing"    yaml:"tracing"`
	Report     ReportConfig     `mapstructure:"report"     yaml:"report"`
}

// DataSourceConfig selects and tunes the financial data sources.
type DataSourceConfig struct {
	Primary           string   `mapstructure:"primary"            yaml:"primary"`   // "yfinance" or "screener"
	Fallbacks         []string `mapstructure:"fallbacks"          yaml:"fallbacks"` // tried in order after primary
	TimeoutSec        int      `mapstructure:"timeout_sec"        yaml:"timeout_sec"`
	ConcurrentFetches int      `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"`
	RateLimit         int      `mapstructure:"rate_limit"         yaml:"rate_limit"` // requests per second per source
	UserAgent         string   `mapstructure:"user_agent"         yaml:"user_agent"`
	ScreenerURL       string   `mapstructure:"screener_url"       yaml:"screener_url"`
}

// Sources returns the primary followed by the fallbacks, without
// duplicates.
func (d DataSourceConfig) Sources() []string {
	var out []string
	for _, name := range append([]string{d.Primary}, d.Fallbacks...) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	TimeoutSec  int      `mapstructure:"timeout_sec"  yaml:"timeout_sec"` // per-request timeout
}

// Addr returns host:port for the listener.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// TracingConfig controls the OpenTelemetry stdout exporter.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"      yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// ReportConfig holds report rendering defaults.
type ReportConfig struct {
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`
	Decimals      int    `mapstructure:"decimals"       yaml:"decimals"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.ratiobench/config.yaml (home directory)
//  3. /etc/ratiobench/config.yaml (system)
//
// Environment variables override config file values.
// Format: RATIOBENCH_<SECTION>_<KEY>, e.g., RATIOBENCH_API_PORT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".ratiobench"))
	v.AddConfigPath("/etc/ratiobench")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data source defaults
	v.SetDefault("datasource.primary", "yfinance")
	v.SetDefault("datasource.fallbacks", []string{"screener"})
	v.SetDefault("datasource.timeout_sec", 30)
	v.SetDefault("datasource.concurrent_fetches", 5)
	v.SetDefault("datasource.rate_limit", 5)
	v.SetDefault("datasource.user_agent", "")
	v.SetDefault("datasource.screener_url", "https://www.screener.in")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.timeout_sec", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "ratiobench")

	// Report defaults
	v.SetDefault("report.default_format", "text")
	v.SetDefault("report.decimals", 2)
}

// overrideFromEnv reads list-valued keys that AutomaticEnv cannot split.
func overrideFromEnv(cfg *Config) {
	if s := os.Getenv(EnvPrefix + "_DATASOURCE_FALLBACKS"); s != "" {
		cfg.DataSource.Fallbacks = splitList(s)
	}
	if s := os.Getenv(EnvPrefix + "_API_CORS_ORIGINS"); s != "" {
		cfg.API.CORSOrigins = splitList(s)
	}
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.DataSource.Primary == "" {
		errs = append(errs, errors.New("datasource.primary is required"))
	}
	for _, name := range c.DataSource.Sources() {
		if !slices.Contains(Providers, name) {
			errs = append(errs, fmt.Errorf("unknown data source %q (want one of %s)", name, strings.Join(Providers, ", ")))
		}
	}
	if c.DataSource.ConcurrentFetches <= 0 {
		errs = append(errs, fmt.Errorf("datasource.concurrent_fetches must be positive, got %d", c.DataSource.ConcurrentFetches))
	}
	if c.DataSource.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("datasource.timeout_sec must be positive, got %d", c.DataSource.TimeoutSec))
	}
	if c.DataSource.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("datasource.rate_limit must not be negative, got %d", c.DataSource.RateLimit))
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	if f := strings.ToLower(c.Report.DefaultFormat); f != "" && !slices.Contains(ReportFormats, f) {
		errs = append(errs, fmt.Errorf("unknown report format %q", c.Report.DefaultFormat))
	}
	if c.Report.Decimals < 0 || c.Report.Decimals > 8 {
		errs = append(errs, fmt.Errorf("report.decimals out of range: %d", c.Report.Decimals))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
