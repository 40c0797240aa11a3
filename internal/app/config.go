package app

import (
	"fmt"

	"github.com/kbukum/deepresearch/config"
	"github.com/kbukum/deepresearch/llm"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/research"
	"github.com/kbukum/deepresearch/research/agents"
	"github.com/kbukum/deepresearch/server"
	"github.com/kbukum/deepresearch/validation"
)

const defaultBackend = "ollama"

// Config is the configuration shared by the research server and CLI.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	LLM           llm.Config           `yaml:"llm" mapstructure:"llm"`
	Agents        agents.Config        `yaml:"agents" mapstructure:"agents"`
	Research      research.Config      `yaml:"research" mapstructure:"research"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section. Telemetry inherits the service
// identity unless set explicitly.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.LLM.Backend == "" {
		c.LLM.Backend = defaultBackend
	}
	c.LLM.ApplyDefaults()
	c.Research.ApplyDefaults()
	c.Server.ApplyDefaults()

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
