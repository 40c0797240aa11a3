package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/deepresearch/component"
	"github.com/kbukum/deepresearch/llm"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/provider"
	"github.com/kbukum/deepresearch/util"
)

const (
	probeTimeout = 5 * time.Second
	keyPrefix    = 4
)

// LLMComponent ties the model client to the service lifecycle. The client
// is opened when the engine is built; the component probes and closes it.
type LLMComponent struct {
	client llm.Client
	cfg    llm.Config
	log    *logger.Logger
}

var (
	_ component.Component   = (*LLMComponent)(nil)
	_ component.Describable = (*LLMComponent)(nil)
)

// NewLLMComponent creates the lifecycle wrapper for client.
func NewLLMComponent(client llm.Client, cfg llm.Config, log *logger.Logger) *LLMComponent {
	return &LLMComponent{client: client, cfg: cfg, log: log.WithComponent("llm")}
}

func (c *LLMComponent) Name() string { return "llm" }

// Start probes the backend. An unreachable backend is logged, not fatal:
// runs fail with a planning error until it comes back.
func (c *LLMComponent) Start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if !c.client.IsAvailable(ctx) {
		c.log.Warn("llm backend not reachable", logger.Fields("backend", c.cfg.Backend, "base_url", c.cfg.BaseURL))
		return nil
	}
	fields := logger.Fields("backend", c.cfg.Backend, "model", c.cfg.Model)
	if c.cfg.APIKey != "" {
		fields["api_key"] = util.MaskSecret(c.cfg.APIKey, keyPrefix)
	}
	c.log.Info("llm backend reachable", fields)
	return nil
}

func (c *LLMComponent) Stop(ctx context.Context) error {
	if closer, ok := c.client.(provider.Closeable); ok {
		return closer.Close(ctx)
	}
	return nil
}

func (c *LLMComponent) Health(ctx context.Context) component.Health {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if !c.client.IsAvailable(ctx) {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: c.cfg.Backend + " backend unreachable"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *LLMComponent) Describe() component.Description {
	details := c.cfg.Model
	if c.cfg.BaseURL != "" {
		details = fmt.Sprintf("%s @ %s", c.cfg.Model, c.cfg.BaseURL)
	}
	if c.cfg.APIKey != "" {
		details += " key " + util.MaskSecret(c.cfg.APIKey, keyPrefix)
	}
	return component.Description{Name: "LLM", Type: c.cfg.Backend, Details: details}
}

// TelemetryComponent installs the OTLP trace and metric exporters. When
// disabled the global no-op providers stay in place.
type TelemetryComponent struct {
	cfg observability.Config
	tp  *sdktrace.TracerProvider
	mp  *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*TelemetryComponent)(nil)
	_ component.Describable = (*TelemetryComponent)(nil)
)

func NewTelemetryComponent(cfg observability.Config) *TelemetryComponent {
	return &TelemetryComponent{cfg: cfg}
}

func (c *TelemetryComponent) Name() string { return "telemetry" }

func (c *TelemetryComponent) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	tp, err := observability.InitTracer(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("telemetry start: %w", err)
	}
	mp, err := observability.InitMeter(ctx, c.cfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry start: %w", err)
	}
	c.tp, c.mp = tp, mp
	return nil
}

// Stop flushes pending spans and metrics.
func (c *TelemetryComponent) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (c *TelemetryComponent) Health(context.Context) component.Health {
	msg := "disabled"
	if c.cfg.Enabled {
		msg = "exporting to " + c.cfg.Endpoint
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: msg}
}

func (c *TelemetryComponent) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("OTLP %s sample=%.2f", c.cfg.Endpoint, c.cfg.SampleRate)
	}
	return component.Description{Name: "Telemetry", Type: "otel", Details: details}
}
