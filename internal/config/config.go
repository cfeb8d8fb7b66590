// Package config loads the application configuration from an optional
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TianxingChang/Kairos-sub000/internal/discovery"
)

// Config holds all tunable settings for the curation core.
type Config struct {
	// MCPServerURL is the base URL of the discovery backend.
	// Default: http://localhost:3002
	MCPServerURL string `yaml:"mcp_server_url"`

	// APIKey authenticates against the backend when non-empty.
	// Default: "" (no authentication)
	APIKey string `yaml:"api_key"`

	// RateLimitPerMinute paces outgoing backend requests client-side.
	// Set to 0 to disable pacing.
	// Default: 60, Range: 0-10000
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// TimeoutSeconds bounds each backend request.
	// Default: 30, Range: 1-600
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxRetries is the number of additional attempts after a transient
	// request failure.
	// Default: 3, Range: 0-10
	MaxRetries int `yaml:"max_retries"`

	// RetryDelaySeconds is the base delay between retry attempts, in
	// seconds.
	// Default: 1.0
	RetryDelaySeconds float64 `yaml:"retry_delay"`

	// BackoffFactor multiplies the retry delay after each failure.
	// Default: 2.0, Range: 1.0-10.0
	BackoffFactor float64 `yaml:"backoff_factor"`

	// MaxReconnectAttempts bounds a single reconnect cycle.
	// Default: 5, Range: 1-20
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"`

	// HealthCheckIntervalSeconds is how long a health probe result stays
	// fresh, in seconds.
	// Default: 30, Range: 1-3600
	HealthCheckIntervalSeconds int `yaml:"health_check_interval"`

	// MaxConcurrent bounds in-flight backend requests.
	// Default: 3, Range: 1-32
	MaxConcurrent int `yaml:"max_concurrent_requests"`

	// MaxResults caps the number of ranked resources a topic search
	// returns.
	// Default: 10, Range: 1-100
	MaxResults int `yaml:"max_results"`

	// EducationalDomainsOnly restricts ranked results to educational
	// sources.
	// Default: false
	EducationalDomainsOnly bool `yaml:"educational_domains_only"`

	// MaxPerDomain caps how many ranked results may share a domain.
	// Default: 2, Range: 1-10
	MaxPerDomain int `yaml:"max_per_domain"`

	// LogLevel sets the logging verbosity: debug, info, warn or error.
	// Default: info
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		MCPServerURL:               "http://localhost:3002",
		RateLimitPerMinute:         60,
		TimeoutSeconds:             30,
		MaxRetries:                 3,
		RetryDelaySeconds:          1.0,
		BackoffFactor:              2.0,
		MaxReconnectAttempts:       5,
		HealthCheckIntervalSeconds: 30,
		MaxConcurrent:              3,
		MaxResults:                 10,
		EducationalDomainsOnly:     false,
		MaxPerDomain:               2,
		LogLevel:                   "info",
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.MCPServerURL == "" {
		return fmt.Errorf("mcp_server_url must not be empty")
	}
	if !strings.HasPrefix(c.MCPServerURL, "http://") && !strings.HasPrefix(c.MCPServerURL, "https://") {
		return fmt.Errorf("mcp_server_url must start with http:// or https:// (got %q)", c.MCPServerURL)
	}
	if c.RateLimitPerMinute < 0 || c.RateLimitPerMinute > 10000 {
		return fmt.Errorf("rate_limit_per_minute must be between 0 and 10000 (got %d)", c.RateLimitPerMinute)
	}
	if c.TimeoutSeconds < 1 || c.TimeoutSeconds > 600 {
		return fmt.Errorf("timeout_seconds must be between 1 and 600 (got %d)", c.TimeoutSeconds)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 0 and 10 (got %d)", c.MaxRetries)
	}
	if c.RetryDelaySeconds <= 0 {
		return fmt.Errorf("retry_delay must be positive (got %v)", c.RetryDelaySeconds)
	}
	if c.BackoffFactor < 1.0 || c.BackoffFactor > 10.0 {
		return fmt.Errorf("backoff_factor must be between 1.0 and 10.0 (got %v)", c.BackoffFactor)
	}
	if c.MaxReconnectAttempts < 1 || c.MaxReconnectAttempts > 20 {
		return fmt.Errorf("max_reconnect_attempts must be between 1 and 20 (got %d)", c.MaxReconnectAttempts)
	}
	if c.HealthCheckIntervalSeconds < 1 || c.HealthCheckIntervalSeconds > 3600 {
		return fmt.Errorf("health_check_interval must be between 1 and 3600 (got %d)",
			c.HealthCheckIntervalSeconds)
	}
	if c.MaxConcurrent < 1 || c.MaxConcurrent > 32 {
		return fmt.Errorf("max_concurrent_requests must be between 1 and 32 (got %d)", c.MaxConcurrent)
	}
	if c.MaxResults < 1 || c.MaxResults > 100 {
		return fmt.Errorf("max_results must be between 1 and 100 (got %d)", c.MaxResults)
	}
	if c.MaxPerDomain < 1 || c.MaxPerDomain > 10 {
		return fmt.Errorf("max_per_domain must be between 1 and 10 (got %d)", c.MaxPerDomain)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error (got %q)", c.LogLevel)
	}
	return nil
}

// String returns a human-readable representation of the config with the
// API key redacted.
func (c Config) String() string {
	key := "unset"
	if c.APIKey != "" {
		key = "set"
	}
	return fmt.Sprintf(
		"Config{Server: %s, APIKey: %s, RateLimit: %d/min, Timeout: %ds, "+
			"Retries: %d, MaxResults: %d, EduOnly: %t, MaxPerDomain: %d, LogLevel: %s}",
		c.MCPServerURL, key, c.RateLimitPerMinute, c.TimeoutSeconds,
		c.MaxRetries, c.MaxResults, c.EducationalDomainsOnly, c.MaxPerDomain, c.LogLevel,
	)
}

// Discovery converts the application settings into a backend session
// configuration.
func (c Config) Discovery() discovery.Config {
	return discovery.Config{
		ServerURL:            c.MCPServerURL,
		APIKey:               c.APIKey,
		Timeout:              time.Duration(c.TimeoutSeconds) * time.Second,
		MaxRetries:           c.MaxRetries,
		RetryDelay:           time.Duration(c.RetryDelaySeconds * float64(time.Second)),
		BackoffFactor:        c.BackoffFactor,
		MaxReconnectAttempts: c.MaxReconnectAttempts,
		HealthCheckInterval:  time.Duration(c.HealthCheckIntervalSeconds) * time.Second,
		RatePerMinute:        c.RateLimitPerMinute,
		MaxConcurrent:        c.MaxConcurrent,
	}
}

// Load builds the configuration in three layers: defaults, then the
// YAML file at path (skipped when path is empty or the file does not
// exist), then KAIROS_* environment variables. The merged result must
// validate.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file falls through to defaults.
		case err != nil:
			return cfg, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides configuration fields from environment variables.
//
// Environment variables:
//   - KAIROS_MCP_SERVER_URL: Backend base URL
//   - KAIROS_API_KEY: Backend bearer token
//   - KAIROS_RATE_LIMIT_PER_MINUTE: Client-side request pacing
//   - KAIROS_TIMEOUT_SECONDS: Per-request timeout
//   - KAIROS_MAX_RETRIES: Additional attempts after transient failures
//   - KAIROS_RETRY_DELAY: Base retry delay in seconds
//   - KAIROS_BACKOFF_FACTOR: Retry delay multiplier
//   - KAIROS_MAX_RECONNECT_ATTEMPTS: Reconnect attempt cap
//   - KAIROS_HEALTH_CHECK_INTERVAL: Health probe freshness window in seconds
//   - KAIROS_MAX_CONCURRENT_REQUESTS: In-flight request cap
//   - KAIROS_MAX_RESULTS: Ranked result cap per topic search
//   - KAIROS_EDUCATIONAL_DOMAINS_ONLY: Restrict to educational sources
//   - KAIROS_MAX_PER_DOMAIN: Per-domain cap in ranked results
//   - KAIROS_LOG_LEVEL: Logging verbosity
func applyEnv(cfg *Config) error {
	if err := parseEnvString("KAIROS_MCP_SERVER_URL", &cfg.MCPServerURL); err != nil {
		return err
	}
	if err := parseEnvString("KAIROS_API_KEY", &cfg.APIKey); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_RATE_LIMIT_PER_MINUTE", &cfg.RateLimitPerMinute); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_TIMEOUT_SECONDS", &cfg.TimeoutSeconds); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_MAX_RETRIES", &cfg.MaxRetries); err != nil {
		return err
	}
	if err := parseEnvFloat("KAIROS_RETRY_DELAY", &cfg.RetryDelaySeconds); err != nil {
		return err
	}
	if err := parseEnvFloat("KAIROS_BACKOFF_FACTOR", &cfg.BackoffFactor); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_MAX_RECONNECT_ATTEMPTS", &cfg.MaxReconnectAttempts); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_HEALTH_CHECK_INTERVAL", &cfg.HealthCheckIntervalSeconds); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_MAX_CONCURRENT_REQUESTS", &cfg.MaxConcurrent); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_MAX_RESULTS", &cfg.MaxResults); err != nil {
		return err
	}
	if err := parseEnvBool("KAIROS_EDUCATIONAL_DOMAINS_ONLY", &cfg.EducationalDomainsOnly); err != nil {
		return err
	}
	if err := parseEnvInt("KAIROS_MAX_PER_DOMAIN", &cfg.MaxPerDomain); err != nil {
		return err
	}
	if err := parseEnvString("KAIROS_LOG_LEVEL", &cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvBool parses a bool from an environment variable
func parseEnvBool(key string, dest *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
