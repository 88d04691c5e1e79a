// Package config loads the service configuration from YAML with
// environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Memory     MemoryConfig     `yaml:"memory"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Server     ServerConfig     `yaml:"server"`
}

// MemoryConfig tunes the conversation memory store.
type MemoryConfig struct {
	// WindowPairs is the maximum number of message pairs kept verbatim.
	WindowPairs int `yaml:"window_pairs"`
	// IdleSeconds is the inactivity threshold before a session expires.
	IdleSeconds int `yaml:"idle_seconds"`
	// SummarizationTimeout bounds one summarization call (e.g. "10s").
	SummarizationTimeout string `yaml:"summarization_timeout"`
}

// SummarizerConfig selects and configures the summarization backend.
type SummarizerConfig struct {
	// Provider is "openai" or "none" (summarization disabled).
	Provider string `yaml:"provider"`
	// Model is the completion model name.
	Model string `yaml:"model"`
	// APIKey falls back to the OPENAI_API_KEY environment variable.
	APIKey string `yaml:"api_key"`
	// Instruction overrides the default summarization prompt.
	Instruction string `yaml:"instruction"`
	// RequestsPerSecond throttles summarization calls (0 = unthrottled).
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// Burst is the throttle burst size.
	Burst int `yaml:"burst"`
}

// SweepConfig drives the idle-session sweeper.
type SweepConfig struct {
	// Schedule is a cron spec (e.g. "@every 5m").
	Schedule string `yaml:"schedule"`
}

// ServerConfig configures the ops HTTP endpoint.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			WindowPairs:          10,
			IdleSeconds:          1800,
			SummarizationTimeout: "10s",
		},
		Summarizer: SummarizerConfig{
			Provider: "openai",
		},
		Sweep: SweepConfig{
			Schedule: "@every 5m",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Load reads configuration from a YAML file, applying defaults and
// environment fallbacks. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyDefaults()

	if cfg.Summarizer.APIKey == "" {
		cfg.Summarizer.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Memory.WindowPairs == 0 {
		c.Memory.WindowPairs = d.Memory.WindowPairs
	}
	if c.Memory.IdleSeconds == 0 {
		c.Memory.IdleSeconds = d.Memory.IdleSeconds
	}
	if c.Memory.SummarizationTimeout == "" {
		c.Memory.SummarizationTimeout = d.Memory.SummarizationTimeout
	}
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = d.Summarizer.Provider
	}
	if c.Sweep.Schedule == "" {
		c.Sweep.Schedule = d.Sweep.Schedule
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
}

// Validate checks the configuration for nonsensical values.
func (c *Config) Validate() error {
	if c.Memory.WindowPairs < 1 {
		return fmt.Errorf("memory.window_pairs must be at least 1, got %d", c.Memory.WindowPairs)
	}
	if c.Memory.IdleSeconds < 1 {
		return fmt.Errorf("memory.idle_seconds must be at least 1, got %d", c.Memory.IdleSeconds)
	}
	if _, err := c.SummarizationTimeout(); err != nil {
		return fmt.Errorf("memory.summarization_timeout: %w", err)
	}
	switch c.Summarizer.Provider {
	case "openai", "none":
	default:
		return fmt.Errorf("unsupported summarizer provider: %s", c.Summarizer.Provider)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// IdleTimeout returns the idle threshold as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Memory.IdleSeconds) * time.Second
}

// SummarizationTimeout parses the configured summarization timeout.
func (c *Config) SummarizationTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Memory.SummarizationTimeout)
}
