// Package app wires the research engine, its remote clients and the HTTP
// surface into a bootstrap.App. Both binaries under cmd/ build on it.
package app

import (
	"fmt"

	"github.com/kbukum/deepresearch/bootstrap"
	"github.com/kbukum/deepresearch/llm"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/research"
	"github.com/kbukum/deepresearch/research/agents"

	// Registered backends.
	_ "github.com/kbukum/deepresearch/llm/gemini"
	_ "github.com/kbukum/deepresearch/llm/ollama"
	_ "github.com/kbukum/deepresearch/llm/openai"
)

// Engine is a fully wired research engine.
type Engine struct {
	Streamer *research.Streamer
	Client   llm.Client
	Metrics  *observability.Metrics

	cfg *Config
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	client    llm.Client
	agentOpts []agents.Option
}

// WithClient uses client instead of opening cfg.LLM.
func WithClient(client llm.Client) EngineOption {
	return func(o *engineOptions) { o.client = client }
}

// WithAgentOptions appends options to agents.Build.
func WithAgentOptions(opts ...agents.Option) EngineOption {
	return func(o *engineOptions) { o.agentOpts = append(o.agentOpts, opts...) }
}

// NewEngine opens the model client and builds the stages, executor,
// orchestrator and streamer. Instruments are created on the global meter
// and start exporting once the telemetry component has started.
func NewEngine(cfg *Config, log *logger.Logger, opts ...EngineOption) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("engine metrics: %w", err)
	}

	client := o.client
	if client == nil {
		if client, err = llm.Open(cfg.LLM); err != nil {
			return nil, fmt.Errorf("engine llm: %w", err)
		}
	}

	stageOpts := append([]agents.Option{
		agents.WithLogger(log.WithComponent("stage")),
		agents.WithMetrics(metrics),
		agents.WithTracing("research"),
	}, o.agentOpts...)
	stages, err := agents.Build(client, cfg.Agents, stageOpts...)
	if err != nil {
		return nil, fmt.Errorf("engine stages: %w", err)
	}

	executor := research.NewExecutor(stages.Searcher,
		research.WithMaxConcurrency(cfg.Research.MaxConcurrency),
		research.WithDedupe(!cfg.Research.DisableDedupe),
		research.WithExecutorMetrics(metrics),
	)
	orchestrator := research.NewOrchestrator(stages.Planner, executor, stages.Writer)

	return &Engine{
		Streamer: research.NewStreamer(orchestrator, cfg.Research, research.WithStreamerMetrics(metrics)),
		Client:   client,
		Metrics:  metrics,
		cfg:      cfg,
	}, nil
}

// Register adds the telemetry and llm components to a, in that order, and
// lists the remote endpoints in the startup summary.
func (e *Engine) Register(a *bootstrap.App[*Config]) error {
	if err := a.RegisterComponent(NewTelemetryComponent(e.cfg.Observability)); err != nil {
		return err
	}
	if err := a.RegisterComponent(NewLLMComponent(e.Client, e.cfg.LLM, a.Logger)); err != nil {
		return err
	}

	target := e.cfg.LLM.BaseURL
	if target == "" {
		target = "(backend default)"
	}
	a.Summary.TrackClient(e.cfg.LLM.Name, target, e.cfg.LLM.Backend)
	if ws := e.cfg.Agents.WebSearch.BaseURL; ws != "" {
		a.Summary.TrackClient("web search", ws, "searxng")
	}
	return nil
}
