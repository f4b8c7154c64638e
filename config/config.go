// Package config loads and validates capture client configuration.
//
// DESIGN: YAML files with ${VAR:-default} environment expansion, so API
// keys and endpoints stay out of checked-in config. Unset capture values
// fall back to library defaults (history size 3).
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/normalform/request-capture/monitoring"
)

// Config is the root configuration for a tracked client.
type Config struct {
	Client  ClientConfig            `yaml:"client"`  // API endpoint and credentials
	Capture CaptureConfig           `yaml:"capture"` // History and annotation settings
	Logging monitoring.LoggerConfig `yaml:"logging"` // Capture event logging
}

// ClientConfig contains API client settings.
type ClientConfig struct {
	// BaseURL of the API. Empty uses the OpenAI endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv is the environment variable name containing the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	// Timeout for API calls.
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that accepts human-readable YAML values like
// "30s" as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// CaptureConfig contains capture layer settings.
type CaptureConfig struct {
	// HistorySize is the number of requests kept in history. Zero means
	// the default (3); negative values are rejected.
	HistorySize int `yaml:"history_size"`

	// CountTokens enables the per-record prompt token estimate.
	CountTokens bool `yaml:"count_tokens"`
}

// APIKey resolves the configured API key from the environment.
func (c ClientConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes, expanding
// ${VAR:-default} references before unmarshalling.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Capture.HistorySize < 0 {
		return fmt.Errorf("invalid capture.history_size: %d (must be positive)", c.Capture.HistorySize)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("invalid client.timeout: %s (must not be negative)", time.Duration(c.Client.Timeout))
	}
	return nil
}
