package dedup

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:     "near exact out of range",
			mutate:   func(c *Config) { c.NearExactThreshold = 1.5 },
			errorMsg: "near_exact_threshold",
		},
		{
			name:     "similar above near exact",
			mutate:   func(c *Config) { c.SimilarThreshold = 0.97 },
			errorMsg: "cannot exceed",
		},
		{
			name:     "negative weight",
			mutate:   func(c *Config) { c.TitleWeight = -0.1; c.URLWeight = 0.8 },
			errorMsg: "title_weight",
		},
		{
			name:     "weights do not sum to one",
			mutate:   func(c *Config) { c.TagWeight = 0.3 },
			errorMsg: "must sum to 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("KAIROS_DEDUP_SIMILAR_THRESHOLD", "0.75")
	t.Setenv("KAIROS_DEDUP_INCLUDE_FILE_SIZE", "false")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SimilarThreshold != 0.75 {
		t.Errorf("expected similar threshold 0.75, got %v", cfg.SimilarThreshold)
	}
	if cfg.IncludeFileSize {
		t.Error("expected include_file_size false")
	}
	// Untouched values keep defaults.
	if cfg.NearExactThreshold != 0.95 {
		t.Errorf("expected default near exact threshold, got %v", cfg.NearExactThreshold)
	}
}

func TestConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("KAIROS_DEDUP_TITLE_WEIGHT", "not-a-number")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for malformed env value")
	}

	t.Setenv("KAIROS_DEDUP_TITLE_WEIGHT", "0.9")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected validation error for weights not summing to 1.0")
	}
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	for _, want := range []string{"NearExact: 0.95", "Similar: 0.80", "FileSize: true"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}
}
