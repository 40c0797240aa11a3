package research

import (
	"strings"
	"time"
)

// Config tunes the engine.
type Config struct {
	// PollInterval is the fallback drain cadence of a Stream. Events are
	// normally picked up as soon as they are pushed.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	// MaxConcurrency caps in-flight searches across all runs. Zero means
	// one concurrent search per planned item with no global cap.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency" validate:"gte=0"`
	// DisableDedupe turns off collapsing of identical in-flight searches.
	DisableDedupe bool `yaml:"disable_dedupe" mapstructure:"disable_dedupe"`
	// TraceURL is the reference link shown in the first frame. {trace_id}
	// and {run_id} are substituted.
	TraceURL string `yaml:"trace_url" mapstructure:"trace_url"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.TraceURL == "" {
		c.TraceURL = "http://localhost:16686/trace/{trace_id}"
	}
}

func (c Config) traceLink(runID, traceID string) string {
	return strings.NewReplacer("{trace_id}", traceID, "{run_id}", runID).Replace(c.TraceURL)
}
