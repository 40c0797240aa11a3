package bootstrap

import (
	"github.com/kbukum/deepresearch/config"
)

// Config is satisfied by any struct embedding config.ServiceConfig:
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    LLM llm.Config       `yaml:"llm" mapstructure:"llm"`
//	}
//
//	app, err := bootstrap.NewApp(&cfg)
type Config interface {
	config.Config
}
