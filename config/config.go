// Package config holds microlog's runtime configuration: the knobs every
// logger, sink, and filter in a deployment is built from. It follows the
// same Default/Merge/FromEnv/Load/Validate shape the rest of the corpus
// uses for configuration, backed by gopkg.in/yaml.v3 for YAML files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one logger's full setup: thresholds, sinks, filters,
// and the ambient shutdown deadline.
type Config struct {
	LoggerName string `json:"logger_name,omitempty" yaml:"logger_name,omitempty"`
	Threshold  string `json:"threshold,omitempty" yaml:"threshold,omitempty"`

	Console ConsoleConfig `json:"console,omitempty" yaml:"console,omitempty"`
	File    FileConfig    `json:"file,omitempty" yaml:"file,omitempty"`

	Redact    RedactConfig    `json:"redact,omitempty" yaml:"redact,omitempty"`
	Sampling  SamplingConfig  `json:"sampling,omitempty" yaml:"sampling,omitempty"`
	RateLimit RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`

	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds,omitempty" yaml:"shutdown_timeout_seconds,omitempty"`
}

// ConsoleConfig configures the console sink.
type ConsoleConfig struct {
	Enabled       bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	UseColors     bool   `json:"use_colors,omitempty" yaml:"use_colors,omitempty"`
	Format        string `json:"format,omitempty" yaml:"format,omitempty"` // pretty|compact|json
	Capacity      int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Policy        string `json:"policy,omitempty" yaml:"policy,omitempty"` // drop_newest|block|coalesce
	IncludeSource bool   `json:"include_source,omitempty" yaml:"include_source,omitempty"`
}

// FileConfig configures the rotating file sink.
type FileConfig struct {
	Enabled       bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Path          string `json:"path,omitempty" yaml:"path,omitempty"`
	MaxBytes      int64  `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
	MaxBackups    int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	Compress      bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
	Format        string `json:"format,omitempty" yaml:"format,omitempty"`
	Capacity      int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Policy        string `json:"policy,omitempty" yaml:"policy,omitempty"`
	IncludeSource bool   `json:"include_source,omitempty" yaml:"include_source,omitempty"`
}

// RedactConfig configures the redaction filter.
type RedactConfig struct {
	Enabled     bool     `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Patterns    []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Replacement string   `json:"replacement,omitempty" yaml:"replacement,omitempty"`
}

// SamplingConfig configures the sampling filter.
type SamplingConfig struct {
	Enabled   bool               `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Rate      float64            `json:"rate,omitempty" yaml:"rate,omitempty"`
	Overrides map[string]float64 `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// RateLimitConfig configures the rate-limit filter.
type RateLimitConfig struct {
	Enabled        bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	MaxPerInterval int  `json:"max_per_interval,omitempty" yaml:"max_per_interval,omitempty"`
	IntervalMS     int  `json:"interval_ms,omitempty" yaml:"interval_ms,omitempty"`
}

// Default returns sensible production defaults: console output only, JSON
// on the (disabled-by-default) file sink, no redaction/sampling/rate
// limiting, a five-second shutdown deadline.
func Default() Config {
	return Config{
		LoggerName: "root",
		Threshold:  "INFO",
		Console: ConsoleConfig{
			Enabled:   true,
			UseColors: true,
			Format:    "pretty",
			Capacity:  8192,
			Policy:    "drop_newest",
		},
		File: FileConfig{
			MaxBytes:   10 * 1024 * 1024,
			MaxBackups: 5,
			Compress:   true,
			Format:     "json",
			Capacity:   8192,
			Policy:     "drop_newest",
		},
		Redact: RedactConfig{
			Replacement: "[REDACTED_{type}]",
		},
		Sampling: SamplingConfig{
			Rate: 1.0,
		},
		ShutdownTimeoutSeconds: 5,
	}
}

// Merge overlays non-zero fields of override onto base.
func Merge(base, override Config) Config {
	result := base

	if override.LoggerName != "" {
		result.LoggerName = override.LoggerName
	}
	if override.Threshold != "" {
		result.Threshold = override.Threshold
	}

	if override.Console.Enabled {
		result.Console.Enabled = true
	}
	if override.Console.Format != "" {
		result.Console.Format = override.Console.Format
	}
	if override.Console.Capacity > 0 {
		result.Console.Capacity = override.Console.Capacity
	}
	if override.Console.Policy != "" {
		result.Console.Policy = override.Console.Policy
	}
	if override.Console.IncludeSource {
		result.Console.IncludeSource = true
	}

	if override.File.Enabled {
		result.File.Enabled = true
	}
	if override.File.Path != "" {
		result.File.Path = override.File.Path
	}
	if override.File.MaxBytes > 0 {
		result.File.MaxBytes = override.File.MaxBytes
	}
	if override.File.MaxBackups > 0 {
		result.File.MaxBackups = override.File.MaxBackups
	}
	if override.File.Format != "" {
		result.File.Format = override.File.Format
	}
	if override.File.Capacity > 0 {
		result.File.Capacity = override.File.Capacity
	}
	if override.File.Policy != "" {
		result.File.Policy = override.File.Policy
	}
	if override.File.IncludeSource {
		result.File.IncludeSource = true
	}

	if override.Redact.Enabled {
		result.Redact.Enabled = true
	}
	if len(override.Redact.Patterns) > 0 {
		result.Redact.Patterns = override.Redact.Patterns
	}
	if override.Redact.Replacement != "" {
		result.Redact.Replacement = override.Redact.Replacement
	}

	if override.Sampling.Enabled {
		result.Sampling.Enabled = true
	}
	if override.Sampling.Rate > 0 {
		result.Sampling.Rate = override.Sampling.Rate
	}
	if len(override.Sampling.Overrides) > 0 {
		result.Sampling.Overrides = override.Sampling.Overrides
	}

	if override.RateLimit.Enabled {
		result.RateLimit.Enabled = true
	}
	if override.RateLimit.MaxPerInterval > 0 {
		result.RateLimit.MaxPerInterval = override.RateLimit.MaxPerInterval
	}
	if override.RateLimit.IntervalMS > 0 {
		result.RateLimit.IntervalMS = override.RateLimit.IntervalMS
	}

	if override.ShutdownTimeoutSeconds > 0 {
		result.ShutdownTimeoutSeconds = override.ShutdownTimeoutSeconds
	}

	return result
}

// FromEnv applies MICROLOG_* environment overrides to base.
func FromEnv(base Config) Config {
	result := base

	if v := os.Getenv("MICROLOG_LOGGER_NAME"); v != "" {
		result.LoggerName = v
	}
	if v := os.Getenv("MICROLOG_THRESHOLD"); v != "" {
		result.Threshold = v
	}
	if v := os.Getenv("MICROLOG_CONSOLE_FORMAT"); v != "" {
		result.Console.Format = v
	}
	if v := os.Getenv("MICROLOG_FILE_PATH"); v != "" {
		result.File.Enabled = true
		result.File.Path = v
	}
	if v := os.Getenv("MICROLOG_FILE_MAX_BYTES"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			result.File.MaxBytes = parsed
		}
	}
	if v := os.Getenv("MICROLOG_FILE_MAX_BACKUPS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			result.File.MaxBackups = parsed
		}
	}
	if v := os.Getenv("MICROLOG_SAMPLING_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			result.Sampling.Enabled = true
			result.Sampling.Rate = parsed
		}
	}
	if v := os.Getenv("MICROLOG_RATE_LIMIT_MAX"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			result.RateLimit.Enabled = true
			result.RateLimit.MaxPerInterval = parsed
		}
	}
	if v := os.Getenv("MICROLOG_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			result.ShutdownTimeoutSeconds = parsed
		}
	}

	return result
}

// Load reads a JSON or YAML config file into Config, chosen by extension
// (.yaml/.yml vs everything else).
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse json: %w", err)
		}
	}
	return cfg, nil
}

// ShutdownTimeout returns the configured shutdown deadline as a
// time.Duration.
func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Validate checks cfg for common misconfigurations, collecting every
// issue found rather than stopping at the first.
func Validate(cfg Config) error {
	var errs []string

	validThresholds := map[string]bool{"DEBUG": true, "INFO": true, "WARNING": true, "ERROR": true, "CRITICAL": true}
	if cfg.Threshold != "" && !validThresholds[strings.ToUpper(cfg.Threshold)] {
		errs = append(errs, fmt.Sprintf("invalid threshold %q: must be DEBUG, INFO, WARNING, ERROR, or CRITICAL", cfg.Threshold))
	}

	validFormats := map[string]bool{"pretty": true, "json": true, "compact": true, "": true}
	if !validFormats[strings.ToLower(cfg.Console.Format)] {
		errs = append(errs, fmt.Sprintf("invalid console format %q", cfg.Console.Format))
	}
	if !validFormats[strings.ToLower(cfg.File.Format)] {
		errs = append(errs, fmt.Sprintf("invalid file format %q", cfg.File.Format))
	}

	if cfg.File.Enabled && cfg.File.Path == "" {
		errs = append(errs, "file.path is required when file.enabled is true")
	}
	if cfg.File.MaxBytes < 0 {
		errs = append(errs, "file.max_bytes cannot be negative")
	}
	if cfg.File.MaxBackups < 0 {
		errs = append(errs, "file.max_backups cannot be negative")
	}

	if cfg.Sampling.Rate < 0 || cfg.Sampling.Rate > 1 {
		errs = append(errs, fmt.Sprintf("sampling.rate must be within 0.0-1.0, got %.2f", cfg.Sampling.Rate))
	}
	for level, rate := range cfg.Sampling.Overrides {
		if rate < 0 || rate > 1 {
			errs = append(errs, fmt.Sprintf("sampling.overrides[%s] must be within 0.0-1.0, got %.2f", level, rate))
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.MaxPerInterval <= 0 {
			errs = append(errs, "rate_limit.max_per_interval must be >= 1 when rate_limit.enabled is true")
		}
		if cfg.RateLimit.IntervalMS <= 0 {
			errs = append(errs, "rate_limit.interval_ms must be > 0 when rate_limit.enabled is true")
		}
	}

	if cfg.ShutdownTimeoutSeconds < 0 {
		errs = append(errs, "shutdown_timeout_seconds cannot be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
