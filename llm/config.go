package llm

import (
	"fmt"
	"time"

	"github.com/kbukum/deepresearch/provider"
	"github.com/kbukum/deepresearch/validation"
)

const defaultTimeout = 120 * time.Second

// Config selects and configures one backend.
type Config struct {
	// Name identifies this client in logs and errors. Defaults to
	// "<backend>-llm".
	Name string `yaml:"name" mapstructure:"name"`

	// Backend is a registered dialect ("openai", "ollama") or backend
	// ("gemini").
	Backend string `yaml:"backend" mapstructure:"backend" validate:"required"`

	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	Model   string `yaml:"model" mapstructure:"model"`

	Temperature float64       `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`

	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Resilience wraps the opened client. Empty means no policies.
	Resilience provider.ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" && c.Backend != "" {
		c.Name = c.Backend + "-llm"
	}
}

// Validate checks the fields every backend needs.
func (c *Config) Validate() error {
	v := validation.New().
		Required("llm.backend", c.Backend).
		Custom(c.Temperature >= 0 && c.Temperature <= 2, "llm.temperature",
			fmt.Sprintf("must be within [0, 2], got %v", c.Temperature)).
		Custom(c.MaxTokens >= 0, "llm.max_tokens", "must not be negative")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Options flattens the config for backend factories.
func (c Config) Options() map[string]any {
	return map[string]any{
		"name":        c.Name,
		"base_url":    c.BaseURL,
		"api_key":     c.APIKey,
		"model":       c.Model,
		"temperature": c.Temperature,
		"max_tokens":  c.MaxTokens,
		"timeout":     c.Timeout,
	}
}
