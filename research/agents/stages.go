package agents

import (
	"fmt"

	"github.com/kbukum/deepresearch/httpclient"
	"github.com/kbukum/deepresearch/llm"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/provider"
	"github.com/kbukum/deepresearch/research"
)

// Config configures the stage adapters.
type Config struct {
	// PromptsFile overrides the bundled prompts stage by stage.
	PromptsFile     string          `yaml:"prompts_file" mapstructure:"prompts_file"`
	HowManySearches int             `yaml:"how_many_searches" mapstructure:"how_many_searches" validate:"gte=0,lte=20"`
	WebSearch       WebSearchConfig `yaml:"web_search" mapstructure:"web_search"`
}

// Stages is the wired set of remote stages.
type Stages struct {
	Planner  research.Planner
	Searcher research.Searcher
	Writer   research.Writer
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	log     *logger.Logger
	metrics *observability.Metrics
	tracing string
	web     WebSearch
}

// WithLogger logs every stage call.
func WithLogger(log *logger.Logger) Option {
	return func(o *buildOptions) { o.log = log }
}

// WithMetrics records every stage call.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *buildOptions) { o.metrics = m }
}

// WithTracing opens a "<service>.<stage>" span per stage call.
func WithTracing(service string) Option {
	return func(o *buildOptions) { o.tracing = service }
}

// WithWebSearch overrides the web backend built from Config.WebSearch.
func WithWebSearch(web WebSearch) Option {
	return func(o *buildOptions) { o.web = web }
}

// Build creates the three stages over client and layers logging, tracing
// and metrics middleware on each.
func Build(client llm.Client, cfg Config, opts ...Option) (*Stages, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	prompts, err := loadPrompts(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	web := o.web
	if web == nil && cfg.WebSearch.BaseURL != "" {
		hc, err := httpclient.New(httpclient.Config{
			Name:    "searxng",
			BaseURL: cfg.WebSearch.BaseURL,
			Retry:   httpclient.DefaultRetryConfig(),
		})
		if err != nil {
			return nil, fmt.Errorf("agents: web search client: %w", err)
		}
		web = NewSearXNG(hc, cfg.WebSearch)
	}

	return &Stages{
		Planner:  wrap(NewPlanner(client, prompts, cfg.HowManySearches), o),
		Searcher: wrap(NewSearcher(client, prompts, web), o),
		Writer:   wrap(NewWriter(client, prompts), o),
	}, nil
}

func loadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts()
	}
	return LoadPrompts(path)
}

func wrap[I, O any](p provider.RequestResponse[I, O], o buildOptions) provider.RequestResponse[I, O] {
	var mws []provider.Middleware[I, O]
	if o.log != nil {
		mws = append(mws, provider.WithLogging[I, O](o.log))
	}
	if o.tracing != "" {
		mws = append(mws, provider.WithTracing[I, O](o.tracing))
	}
	if o.metrics != nil {
		mws = append(mws, provider.WithMetrics[I, O](o.metrics))
	}
	if len(mws) == 0 {
		return p
	}
	return provider.Chain(mws...)(p)
}
