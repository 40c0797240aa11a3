package llm

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/deepresearch/httpclient"
)

// Dialect maps the universal types to and from one vendor's HTTP format.
type Dialect interface {
	Name() string

	// DefaultBaseURL is used when the config leaves BaseURL empty.
	DefaultBaseURL() string

	// ChatPath is the completion endpoint, relative to the base URL.
	ChatPath() string

	// HealthPath is probed by IsAvailable. Empty means probe the base URL.
	HealthPath() string

	// Auth builds request authentication from an API key. It may return
	// nil for backends that take no key.
	Auth(apiKey string) *httpclient.AuthConfig

	BuildRequest(req CompletionRequest) (any, error)
	ParseResponse(body []byte) (*CompletionResponse, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// RegisterDialect adds d under name. Dialect packages call it from init.
func RegisterDialect(name string, d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[name] = d
}

// GetDialect retrieves a registered dialect.
func GetDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown dialect %q (forgot to import driver?)", name)
	}
	return d, nil
}

// Dialects returns the registered dialect names, sorted.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
