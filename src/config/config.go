// Package config provides configuration management for angles-reporter.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// a .env file found in the working directory or one of its parents, and
// finally the process environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvBaseURL         = "ANGLES_BASE_URL"
	EnvAPIToken        = "ANGLES_API_TOKEN"
	EnvTimeout         = "ANGLES_TIMEOUT"
	EnvLogLevel        = "ANGLES_LOG_LEVEL"
	EnvLogFormat       = "ANGLES_LOG_FORMAT"
	EnvRedpandaBrokers = "REDPANDA_BROKERS"
	EnvMetricsAddr     = "ANGLES_METRICS_ADDR"
)

const (
	// DefaultBaseURL is the REST root of a locally running Angles service.
	DefaultBaseURL = "http://127.0.0.1:3000/rest/api/v1.0/"

	// FormatConsole selects human readable log lines.
	FormatConsole = "console"
	// FormatJSON selects structured JSON log lines.
	FormatJSON = "json"
	// FormatPlain selects unstructured "[LEVEL] message" lines.
	FormatPlain = "plain"
)

// Config holds the application configuration.
type Config struct {
	// BaseURL is the REST root of the reporting service.
	BaseURL string `yaml:"base_url"`

	// APIToken is sent as a bearer token when set.
	APIToken string `yaml:"api_token"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// RedpandaBrokers enables mirroring of reports to Redpanda when non-empty.
	RedpandaBrokers []string `yaml:"redpanda_brokers"`

	// MetricsAddr serves Prometheus metrics on /metrics when set, e.g. ":9464".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the baseline configuration used when nothing else is set.
func Default() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   10 * time.Second,
		LogLevel:  "info",
		LogFormat: FormatConsole,
	}
}

// MirrorEnabled reports whether reports should be mirrored to a broker.
func (c *Config) MirrorEnabled() bool {
	return len(c.RedpandaBrokers) > 0
}

// Validate checks that the configuration can be used to reach a service.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", EnvBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", EnvTimeout, c.Timeout)
	}
	switch c.LogFormat {
	case FormatConsole, FormatJSON, FormatPlain:
	default:
		return fmt.Errorf("%s must be %q, %q or %q, got %q", EnvLogFormat, FormatConsole, FormatJSON, FormatPlain, c.LogFormat)
	}
	return nil
}

// LoadFile reads a YAML config file over the defaults. Fields absent from the
// file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadDotEnv traverses up from dir to find a .env file and loads it into the
// process environment. Variables already set are not overridden. A missing
// .env file is not an error.
func LoadDotEnv(dir string) error {
	for {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err == nil {
			return godotenv.Load(envFile)
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			return nil
		}
		dir = parentDir
	}
}

// ApplyEnv overrides cfg with any environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv(EnvRedpandaBrokers); v != "" {
		cfg.RedpandaBrokers = splitList(v)
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	cfg.normalize()
	return nil
}

// normalize lowercases the enumerated fields so file and env values compare alike.
func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Load resolves the full configuration: defaults, then path (skipped when
// empty), then a .env file above the working directory, then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	if wd, err := os.Getwd(); err == nil {
		if err := LoadDotEnv(wd); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
