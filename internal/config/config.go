// Package config loads sitegen settings from an optional TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var (
	errInvalidBaseURL  = errors.New("config: api_base_url must be an absolute http(s) URL")
	errInvalidInterval = errors.New("config: intervals must be positive")
)

// Duration wraps time.Duration so it can be written as "2s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config holds all configuration settings for the application
type Config struct {
	// APIBaseURL is the base URL of the website generation service
	APIBaseURL string `toml:"api_base_url"`

	// PollInterval is the delay between status checks
	PollInterval Duration `toml:"poll_interval"`

	// ProgressInterval is the delay between cosmetic progress ticks
	ProgressInterval Duration `toml:"progress_interval"`

	// OutputDir is where downloaded artifacts are written by default
	OutputDir string `toml:"output_dir"`

	// CacheTTL bounds how long fetched bundles are reused within one run
	CacheTTL Duration `toml:"cache_ttl"`

	// LogDir enables file logging when set
	LogDir string `toml:"log_dir"`

	// Storage configures the optional S3-compatible artifact sink
	Storage StorageConfig `toml:"storage"`
}

// StorageConfig holds S3-compatible object storage settings.
type StorageConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Bucket    string `toml:"bucket"`
}

// Enabled reports whether an object storage endpoint is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		APIBaseURL:       DefaultAPIBaseURL,
		PollInterval:     Duration{DefaultPollInterval},
		ProgressInterval: Duration{DefaultProgressInterval},
		OutputDir:        DefaultOutputDir,
		CacheTTL:         Duration{DefaultCacheTTL},
	}
}

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := defaultConfig()

	configPath := os.Getenv("SITEGEN_CONFIG")
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	config.APIBaseURL = strings.TrimRight(config.APIBaseURL, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	// NEXT_PUBLIC_API_BASE_URL is honoured for setups that share a .env with the web frontend.
	if base := os.Getenv("NEXT_PUBLIC_API_BASE_URL"); base != "" {
		c.APIBaseURL = base
	}
	if base := os.Getenv("SITEGEN_API_BASE_URL"); base != "" {
		c.APIBaseURL = base
	}

	durations := []struct {
		key    string
		target *Duration
	}{
		{"SITEGEN_POLL_INTERVAL", &c.PollInterval},
		{"SITEGEN_PROGRESS_INTERVAL", &c.ProgressInterval},
		{"SITEGEN_CACHE_TTL", &c.CacheTTL},
	}
	for _, d := range durations {
		value := os.Getenv(d.key)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, value, err)
		}
		d.target.Duration = parsed
	}

	if dir := os.Getenv("SITEGEN_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if dir := os.Getenv("SITEGEN_LOG_DIR"); dir != "" {
		c.LogDir = dir
	}

	if endpoint := os.Getenv("SITEGEN_S3_ENDPOINT"); endpoint != "" {
		c.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("SITEGEN_S3_ACCESS_KEY"); key != "" {
		c.Storage.AccessKey = key
	}
	if secret := os.Getenv("SITEGEN_S3_SECRET_KEY"); secret != "" {
		c.Storage.SecretKey = secret
	}
	if bucket := os.Getenv("SITEGEN_S3_BUCKET"); bucket != "" {
		c.Storage.Bucket = bucket
	}
	if useSSL := os.Getenv("SITEGEN_S3_USE_SSL"); useSSL != "" {
		parsed, err := strconv.ParseBool(useSSL)
		if err != nil {
			return fmt.Errorf("invalid SITEGEN_S3_USE_SSL %q: %w", useSSL, err)
		}
		c.Storage.UseSSL = parsed
	}

	return nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidBaseURL, c.APIBaseURL)
	}
	if c.PollInterval.Duration <= 0 || c.ProgressInterval.Duration <= 0 {
		return fmt.Errorf("%w: poll=%s progress=%s", errInvalidInterval, c.PollInterval, c.ProgressInterval)
	}
	return nil
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("APIBaseURL: %s", c.APIBaseURL))
	parts = append(parts, fmt.Sprintf("PollInterval: %s", c.PollInterval))
	parts = append(parts, fmt.Sprintf("ProgressInterval: %s", c.ProgressInterval))
	parts = append(parts, fmt.Sprintf("OutputDir: %s", c.OutputDir))
	if c.Storage.Enabled() {
		parts = append(parts, fmt.Sprintf("Storage: %s", c.Storage.Endpoint))
	}
	return strings.Join(parts, ", ")
}
