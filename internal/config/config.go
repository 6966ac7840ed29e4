// Package config provides configuration loading for census-dict runs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultIndexURL = "https://www.abs.gov.au/census/guide-census-data/census-dictionary/2021/variables-index"
	DefaultBaseURL  = "https://www.abs.gov.au"
)

// Config represents a census-dict run configuration
type Config struct {
	Source SourceConfig `yaml:"source"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Build  BuildConfig  `yaml:"build"`
	// LogLevel is the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// SourceConfig locates the dictionary pages
type SourceConfig struct {
	// IndexURL is the variables index page
	IndexURL string `yaml:"index_url"`
	// BaseURL is prefixed to relative links found on the index
	BaseURL string `yaml:"base_url"`
}

// FetchConfig controls page retrieval
type FetchConfig struct {
	// CacheDir holds downloaded pages (CODE.html); empty disables the cache
	CacheDir string `yaml:"cache_dir"`
	// CacheTTL expires cached pages after this long; zero keeps them forever
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Refresh re-downloads pages even when cached
	Refresh bool `yaml:"refresh"`
	// RatePerSecond limits requests to the site
	RatePerSecond float64 `yaml:"rate_per_second"`
	// MaxRetries is the number of retries for a failed fetch
	MaxRetries int `yaml:"max_retries"`
	// Timeout applies to each HTTP request
	Timeout time.Duration `yaml:"timeout"`
}

// BuildConfig controls category extraction
type BuildConfig struct {
	// Overrides is the per-variable override file
	Overrides string `yaml:"overrides"`
	// Output is the dictionary path, "-" for stdout
	Output string `yaml:"output"`
	// ValidateHeadings requires "Code" and "Category"/"Categories" headings
	ValidateHeadings bool `yaml:"validate_headings"`
	// StrictASCII fails a variable whose labels keep non-ASCII text
	StrictASCII bool `yaml:"strict_ascii"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			IndexURL: DefaultIndexURL,
			BaseURL:  DefaultBaseURL,
		},
		Fetch: FetchConfig{
			CacheDir:      "~/.cache/census-dict/htmls",
			RatePerSecond: 2,
			MaxRetries:    3,
			Timeout:       30 * time.Second,
		},
		Build: BuildConfig{
			Overrides: "configs/overrides.json",
			Output:    "census-dict-2021.json",
		},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Source.IndexURL == "" {
		return fmt.Errorf("source.index_url is required")
	}
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if c.Fetch.RatePerSecond <= 0 {
		return fmt.Errorf("fetch.rate_per_second must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative")
	}
	if c.Fetch.CacheTTL < 0 {
		return fmt.Errorf("fetch.cache_ttl must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Build.Output == "" {
		return fmt.Errorf("build.output is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load returns the defaults when path is empty, otherwise the file's configuration
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFromFile(path)
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Source.IndexURL != "" {
		c.Source.IndexURL = other.Source.IndexURL
	}
	if other.Source.BaseURL != "" {
		c.Source.BaseURL = other.Source.BaseURL
	}

	if other.Fetch.CacheDir != "" {
		c.Fetch.CacheDir = other.Fetch.CacheDir
	}
	if other.Fetch.CacheTTL != 0 {
		c.Fetch.CacheTTL = other.Fetch.CacheTTL
	}
	if other.Fetch.Refresh {
		c.Fetch.Refresh = true
	}
	if other.Fetch.RatePerSecond != 0 {
		c.Fetch.RatePerSecond = other.Fetch.RatePerSecond
	}
	if other.Fetch.MaxRetries != 0 {
		c.Fetch.MaxRetries = other.Fetch.MaxRetries
	}
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}

	if other.Build.Overrides != "" {
		c.Build.Overrides = other.Build.Overrides
	}
	if other.Build.Output != "" {
		c.Build.Output = other.Build.Output
	}
	if other.Build.ValidateHeadings {
		c.Build.ValidateHeadings = true
	}
	if other.Build.StrictASCII {
		c.Build.StrictASCII = true
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
