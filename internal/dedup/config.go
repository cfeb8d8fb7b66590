package dedup

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// Config holds configuration for the duplicate detector.
type Config struct {
	// NearExactThreshold is the combined similarity at or above which a
	// pair is reported as near_exact. Default: 0.95.
	NearExactThreshold float64

	// SimilarThreshold is the combined similarity at or above which a
	// pair is reported as similar. Pairs below it are discarded.
	// Default: 0.8.
	SimilarThreshold float64

	// TitleWeight, URLWeight, DomainWeight, and TagWeight are the
	// contribution of each signal to the combined score. They must sum
	// to 1.0. Defaults: 0.4 / 0.3 / 0.2 / 0.1.
	TitleWeight  float64
	URLWeight    float64
	DomainWeight float64
	TagWeight    float64

	// IncludeFileSize folds file_size_bytes into the exact-match hash,
	// so byte-identical metadata with different sizes stays distinct.
	// Default: true.
	IncludeFileSize bool
}

// DefaultConfig returns the default detector configuration.
//
// Thresholds are chosen to keep false positives rare: near-exact demands
// an almost perfect combined score, and anything under 0.8 is treated as
// coincidental resemblance rather than duplication.
func DefaultConfig() Config {
	return Config{
		NearExactThreshold: 0.95,
		SimilarThreshold:   0.8,
		TitleWeight:        0.4,
		URLWeight:          0.3,
		DomainWeight:       0.2,
		TagWeight:          0.1,
		IncludeFileSize:    true,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.NearExactThreshold < 0.0 || c.NearExactThreshold > 1.0 {
		return fmt.Errorf("near_exact_threshold must be between 0.0 and 1.0 (got %.2f)", c.NearExactThreshold)
	}
	if c.SimilarThreshold < 0.0 || c.SimilarThreshold > 1.0 {
		return fmt.Errorf("similar_threshold must be between 0.0 and 1.0 (got %.2f)", c.SimilarThreshold)
	}
	if c.SimilarThreshold > c.NearExactThreshold {
		return fmt.Errorf("similar_threshold (%.2f) cannot exceed near_exact_threshold (%.2f)",
			c.SimilarThreshold, c.NearExactThreshold)
	}
	for name, w := range map[string]float64{
		"title_weight":  c.TitleWeight,
		"url_weight":    c.URLWeight,
		"domain_weight": c.DomainWeight,
		"tag_weight":    c.TagWeight,
	} {
		if w < 0.0 || w > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0 (got %.2f)", name, w)
		}
	}
	sum := c.TitleWeight + c.URLWeight + c.DomainWeight + c.TagWeight
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("signal weights must sum to 1.0 (got %.3f)", sum)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{NearExact: %.2f, Similar: %.2f, Weights: %.2f/%.2f/%.2f/%.2f, FileSize: %t}",
		c.NearExactThreshold, c.SimilarThreshold,
		c.TitleWeight, c.URLWeight, c.DomainWeight, c.TagWeight,
		c.IncludeFileSize,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling
// back to defaults.
//
// Environment variables:
//   - KAIROS_DEDUP_NEAR_EXACT_THRESHOLD: near-exact cutoff (default: 0.95)
//   - KAIROS_DEDUP_SIMILAR_THRESHOLD: similar cutoff (default: 0.8)
//   - KAIROS_DEDUP_TITLE_WEIGHT: title signal weight (default: 0.4)
//   - KAIROS_DEDUP_URL_WEIGHT: url signal weight (default: 0.3)
//   - KAIROS_DEDUP_DOMAIN_WEIGHT: domain signal weight (default: 0.2)
//   - KAIROS_DEDUP_TAG_WEIGHT: tag signal weight (default: 0.1)
//   - KAIROS_DEDUP_INCLUDE_FILE_SIZE: hash file size in the exact pass (default: true)
//
// Returns an error if any variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("KAIROS_DEDUP_NEAR_EXACT_THRESHOLD", &cfg.NearExactThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("KAIROS_DEDUP_SIMILAR_THRESHOLD", &cfg.SimilarThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("KAIROS_DEDUP_TITLE_WEIGHT", &cfg.TitleWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("KAIROS_DEDUP_URL_WEIGHT", &cfg.URLWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("KAIROS_DEDUP_DOMAIN_WEIGHT", &cfg.DomainWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("KAIROS_DEDUP_TAG_WEIGHT", &cfg.TagWeight); err != nil {
		return cfg, err
	}
	if err := parseEnvBool("KAIROS_DEDUP_INCLUDE_FILE_SIZE", &cfg.IncludeFileSize); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
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
