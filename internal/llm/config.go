package llm

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names with built-in adapters.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Duration is a time.Duration that unmarshals from YAML strings like "15s"
// as well as bare integers (nanoseconds).
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if ns, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*d = Duration(ns)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the completion client configuration.
type Config struct {
	// Provider selects the adapter; Model is the provider's model identifier.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds each individual attempt, distinct from the caller's
	// overall deadline.
	Timeout Duration `yaml:"timeout"`

	Retry RetryConfig `yaml:"retry"`

	Providers map[string]ProviderConfig `yaml:"providers"`

	// HTTPClient overrides the transport, primarily for tests.
	HTTPClient *http.Client `yaml:"-"`
}

// ProviderConfig holds one provider's endpoint and credentials. The API key
// is taken from APIKey when set, otherwise from the APIKeyEnv environment
// variable.
type ProviderConfig struct {
	Endpoint  string            `yaml:"endpoint"`
	APIKey    string            `yaml:"-"`
	APIKeyEnv string            `yaml:"api_key_env"`
	Headers   map[string]string `yaml:"headers"`
}

// RetryConfig bounds the retry loop: exponential backoff with jitter between
// attempts, capped at MaxInterval.
type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts"`
	InitialInterval Duration `yaml:"initial_interval"`
	MaxInterval     Duration `yaml:"max_interval"`
	Jitter          float64  `yaml:"jitter"`
}

// DefaultConfig returns production defaults: OpenAI with a short per-attempt
// timeout and a small bounded retry budget.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o-mini",
		MaxTokens:   1024,
		Temperature: 0.2,
		Timeout:     Duration(15 * time.Second),
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: Duration(500 * time.Millisecond),
			MaxInterval:     Duration(5 * time.Second),
			Jitter:          0.2,
		},
		Providers: map[string]ProviderConfig{
			ProviderOpenAI: {
				Endpoint:  "https://api.openai.com/v1",
				APIKeyEnv: "OPENAI_API_KEY",
			},
			ProviderAnthropic: {
				Endpoint:  "https://api.anthropic.com",
				APIKeyEnv: "ANTHROPIC_API_KEY",
			},
		},
	}
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaults.MaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if c.Retry.InitialInterval <= 0 {
		c.Retry.InitialInterval = defaults.Retry.InitialInterval
	}
	if c.Retry.MaxInterval <= 0 {
		c.Retry.MaxInterval = defaults.Retry.MaxInterval
	}
	if c.Providers == nil {
		c.Providers = defaults.Providers
		return
	}
	for name, def := range defaults.Providers {
		cfg, ok := c.Providers[name]
		if !ok {
			c.Providers[name] = def
			continue
		}
		if cfg.Endpoint == "" {
			cfg.Endpoint = def.Endpoint
		}
		if cfg.APIKeyEnv == "" {
			cfg.APIKeyEnv = def.APIKeyEnv
		}
		c.Providers[name] = cfg
	}
}

// resolveKey returns the provider credential or an empty string.
func (p ProviderConfig) resolveKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// backoffDelay returns the jittered exponential delay before the given
// attempt (attempt >= 1).
func (r RetryConfig) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(r.InitialInterval)
	maxDelay := time.Duration(r.MaxInterval)
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			delay = maxDelay
			break
		}
	}
	if r.Jitter > 0 {
		span := float64(delay) * r.Jitter
		delay = time.Duration(float64(delay) - span/2 + rand.Float64()*span)
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
