package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/c360/statekit/naming"
)

// Missing-name policy names accepted in configuration files.
const (
	PolicyNameError   = "error"   // Fail initialization on a missing required name
	PolicyNameCollect = "collect" // Record missing names for later enumeration
)

// Config is the complete session configuration: identity, validation
// switches, event-stream settings, and the metrics endpoint.
type Config struct {
	Session    SessionConfig    `json:"session" yaml:"session"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
}

// SessionConfig names the session and fixes registry-wide policy.
type SessionConfig struct {
	Name              string `json:"name" yaml:"name"`
	MissingNamePolicy string `json:"missing_name_policy,omitempty" yaml:"missing_name_policy,omitempty"`
}

// ValidationConfig controls the API validator and archetype generation.
// BaselinePath and OverridesPath point at the reference documents checked
// when startup completes; both are optional.
type ValidationConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	CreateArchetypes bool   `json:"create_archetypes" yaml:"create_archetypes"`
	BaselinePath     string `json:"baseline_path,omitempty" yaml:"baseline_path,omitempty"`
	OverridesPath    string `json:"overrides_path,omitempty" yaml:"overrides_path,omitempty"`
}

// EventsConfig controls event publishing. An empty URL leaves the recorder
// in-process only. PublishRateLimit bounds high-frequency publishes per
// second; zero means unlimited.
type EventsConfig struct {
	URL                   string  `json:"url,omitempty" yaml:"url,omitempty"`
	SuppressHighFrequency bool    `json:"suppress_high_frequency" yaml:"suppress_high_frequency"`
	PublishRateLimit      float64 `json:"publish_rate_limit,omitempty" yaml:"publish_rate_limit,omitempty"`
	PublishBurst          int     `json:"publish_burst,omitempty" yaml:"publish_burst,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns the configuration used when no file is supplied:
// validation on, archetypes on, strict missing-name policy, metrics on the
// conventional port, no event publishing.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Name:              "sim",
			MissingNamePolicy: PolicyNameError,
		},
		Validation: ValidationConfig{
			Enabled:          true,
			CreateArchetypes: true,
		},
		Events: EventsConfig{
			PublishBurst: 64,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate checks the config is internally consistent.
func (c *Config) Validate() error {
	if c.Session.Name == "" {
		return errors.New("session.name is required")
	}
	if err := naming.ValidateName(c.Session.Name); err != nil {
		return fmt.Errorf("session.name: %w", err)
	}

	switch c.Session.MissingNamePolicy {
	case "", PolicyNameError, PolicyNameCollect:
	default:
		return fmt.Errorf("session.missing_name_policy %q is not %q or %q",
			c.Session.MissingNamePolicy, PolicyNameError, PolicyNameCollect)
	}

	if c.Events.PublishRateLimit < 0 {
		return errors.New("events.publish_rate_limit cannot be negative")
	}
	if c.Events.PublishBurst < 0 {
		return errors.New("events.publish_burst cannot be negative")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port %d is out of range", c.Metrics.Port)
		}
	}

	return nil
}

// MissingNamePolicy maps the configured policy name onto the registry's
// policy value. The empty string means the default, PolicyError.
func (c *Config) MissingNamePolicy() naming.MissingNamePolicy {
	if c.Session.MissingNamePolicy == PolicyNameCollect {
		return naming.PolicyCollect
	}
	return naming.PolicyError
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// SafeConfig provides thread-safe access to configuration.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
