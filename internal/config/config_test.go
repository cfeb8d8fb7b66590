package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.MCPServerURL != "http://localhost:3002" {
		t.Errorf("expected default server URL, got %q", cfg.MCPServerURL)
	}
	if cfg.MaxResults != 10 {
		t.Errorf("expected default max_results 10, got %d", cfg.MaxResults)
	}
	if cfg.MaxPerDomain != 2 {
		t.Errorf("expected default max_per_domain 2, got %d", cfg.MaxPerDomain)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty server url", func(c *Config) { c.MCPServerURL = "" }, "mcp_server_url"},
		{"bad scheme", func(c *Config) { c.MCPServerURL = "tcp://host" }, "mcp_server_url"},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }, "rate_limit_per_minute"},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, "max_retries"},
		{"zero retry delay", func(c *Config) { c.RetryDelaySeconds = 0 }, "retry_delay"},
		{"backoff below one", func(c *Config) { c.BackoffFactor = 0.9 }, "backoff_factor"},
		{"zero reconnects", func(c *Config) { c.MaxReconnectAttempts = 0 }, "max_reconnect_attempts"},
		{"zero max results", func(c *Config) { c.MaxResults = 0 }, "max_results"},
		{"zero per domain", func(c *Config) { c.MaxPerDomain = 0 }, "max_per_domain"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kairos.yaml")
	content := `
mcp_server_url: https://discovery.internal:8443
rate_limit_per_minute: 120
max_results: 25
educational_domains_only: true
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MCPServerURL != "https://discovery.internal:8443" {
		t.Errorf("server URL not loaded, got %q", cfg.MCPServerURL)
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Errorf("rate limit not loaded, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.MaxResults != 25 {
		t.Errorf("max_results not loaded, got %d", cfg.MaxResults)
	}
	if !cfg.EducationalDomainsOnly {
		t.Error("educational_domains_only not loaded")
	}
	// Fields absent from the file keep their defaults.
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("timeout should keep default 30, got %d", cfg.TimeoutSeconds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Error("expected default config for missing file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("mcp_server_url: [not, a, string"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KAIROS_MCP_SERVER_URL", "http://override:9000")
	t.Setenv("KAIROS_MAX_RESULTS", "5")
	t.Setenv("KAIROS_EDUCATIONAL_DOMAINS_ONLY", "true")
	t.Setenv("KAIROS_RETRY_DELAY", "0.5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MCPServerURL != "http://override:9000" {
		t.Errorf("env override not applied, got %q", cfg.MCPServerURL)
	}
	if cfg.MaxResults != 5 {
		t.Errorf("env max_results not applied, got %d", cfg.MaxResults)
	}
	if !cfg.EducationalDomainsOnly {
		t.Error("env bool override not applied")
	}
	if cfg.RetryDelaySeconds != 0.5 {
		t.Errorf("env float override not applied, got %v", cfg.RetryDelaySeconds)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kairos.yaml")
	if err := os.WriteFile(path, []byte("max_results: 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KAIROS_MAX_RESULTS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MaxResults != 7 {
		t.Errorf("env should win over file, got %d", cfg.MaxResults)
	}
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("KAIROS_MAX_RESULTS", "plenty")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric env value")
	}
}

func TestLoadRejectsInvalidMerge(t *testing.T) {
	t.Setenv("KAIROS_MAX_RESULTS", "500")
	if _, err := Load(""); err == nil {
		t.Error("expected validation error for out-of-range merged value")
	}
}

func TestDiscoveryConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryDelaySeconds = 1.5
	cfg.APIKey = "secret"

	d := cfg.Discovery()
	if d.ServerURL != cfg.MCPServerURL {
		t.Errorf("server URL mismatch: %q", d.ServerURL)
	}
	if d.Timeout != 30*time.Second {
		t.Errorf("timeout mismatch: %v", d.Timeout)
	}
	if d.RetryDelay != 1500*time.Millisecond {
		t.Errorf("retry delay mismatch: %v", d.RetryDelay)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("converted config should validate: %v", err)
	}
}

func TestStringRedactsAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "super-secret-token"
	s := cfg.String()
	if strings.Contains(s, "super-secret-token") {
		t.Error("String() must not leak the API key")
	}
	if !strings.Contains(s, "APIKey: set") {
		t.Errorf("String() should note the key is set, got %q", s)
	}
}
