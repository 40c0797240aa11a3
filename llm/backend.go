package llm

import (
	"fmt"

	"github.com/kbukum/deepresearch/provider"
)

// backends holds non-HTTP backends such as SDK clients. HTTP backends are
// described by a Dialect instead.
var backends = provider.NewRegistry[Client]()

// RegisterBackend adds a backend factory. The factory receives
// Config.Options().
func RegisterBackend(name string, factory provider.Factory[Client]) {
	backends.RegisterFactory(name, factory)
}

// Backends lists every name Open accepts.
func Backends() []string {
	names := Dialects()
	for _, name := range backends.List() {
		if _, err := GetDialect(name); err != nil {
			names = append(names, name)
		}
	}
	return names
}

// Open builds the backend named by cfg.Backend and wraps it with
// cfg.Resilience.
func Open(cfg Config) (Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var client Client
	if dialect, err := GetDialect(cfg.Backend); err == nil {
		a, err := newAdapter(dialect, cfg)
		if err != nil {
			return nil, err
		}
		client = a
	} else {
		c, err := backends.Create(cfg.Backend, cfg.Options())
		if err != nil {
			return nil, fmt.Errorf("llm: open %q: %w", cfg.Backend, err)
		}
		client = c
	}
	return provider.WithResilience(client, cfg.Resilience), nil
}
