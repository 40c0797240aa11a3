package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/deepresearch/logger"
)

// InitMeter installs a global meter provider exporting to cfg.Endpoint.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the engine and its stage adapters.
type Metrics struct {
	runTotal          metric.Int64Counter
	runDuration       metric.Float64Histogram
	runActive         metric.Int64UpDownCounter
	searchTotal       metric.Int64Counter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err error

	if m.runTotal, err = meter.Int64Counter("research.run.total",
		metric.WithDescription("Research runs by outcome")); err != nil {
		return nil, fmt.Errorf("creating research.run.total: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("research.run.duration",
		metric.WithDescription("Research run duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating research.run.duration: %w", err)
	}
	if m.runActive, err = meter.Int64UpDownCounter("research.run.active",
		metric.WithDescription("Research runs in flight")); err != nil {
		return nil, fmt.Errorf("creating research.run.active: %w", err)
	}
	if m.searchTotal, err = meter.Int64Counter("research.search.total",
		metric.WithDescription("Settled searches by outcome")); err != nil {
		return nil, fmt.Errorf("creating research.search.total: %w", err)
	}
	if m.operationTotal, err = meter.Int64Counter("operation.total",
		metric.WithDescription("Stage calls by provider and status")); err != nil {
		return nil, fmt.Errorf("creating operation.total: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("operation.duration",
		metric.WithDescription("Stage call duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating operation.duration: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total: %w", err)
	}
	return &m, nil
}

// RunStarted increments the in-flight run gauge.
func (m *Metrics) RunStarted(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RunFinished records a terminal run with outcome "completed", "failed" or
// "cancelled".
func (m *Metrics) RunFinished(ctx context.Context, outcome string, d time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordSearch counts one settled search.
func (m *Metrics) RecordSearch(ctx context.Context, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.searchTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordOperation records one provider call.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, d time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordError counts an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
