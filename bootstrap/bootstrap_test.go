package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/deepresearch/component"
	"github.com/kbukum/deepresearch/config"
	"github.com/kbukum/deepresearch/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() component.Description {
	return component.Description{Name: "LLM", Type: "llm", Details: "ollama llama3"}
}

func (d *describedComponent) Routes() []component.Route {
	return []component.Route{{Method: "POST", Path: "/api/v1/research", Handler: "Handler.StartRun"}}
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "research-test", Version: "1.0.0"}}
	opts = append([]Option{WithLogger(logger.Nop()), WithSummaryWriter(&bytes.Buffer{})}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "research-test" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Fatal("expected registry, logger and summary")
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected 15s default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.Nop()))
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s, got %v", app.gracefulTimeout)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("llm")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := app.RegisterComponent(healthy("llm")); err == nil {
		t.Fatal("expected duplicate error")
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("empty registry should be ready: %v", err)
	}

	app.RegisterComponent(healthy("llm"))
	app.RegisterComponent(&mockComponent{name: "sse", health: component.Health{Name: "sse", Status: component.StatusDegraded, Message: "slow"}})
	err := app.ReadyCheck(context.Background())
	if err == nil {
		t.Fatal("expected degraded component to fail the ready check")
	}
	if !strings.Contains(err.Error(), "sse=degraded(slow)") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app := newTestApp(t)
	c := healthy("llm")
	app.RegisterComponent(c)

	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if got := strings.Join(order, ","); got != "start,configure,ready,task,stop" {
		t.Errorf("unexpected order %s", got)
	}
	if !c.started || !c.stopped {
		t.Error("expected component started and stopped")
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	want := errors.New("research failed")
	if err := app.RunTask(context.Background(), func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.RunTask(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunTaskStartFailureStopsStarted(t *testing.T) {
	app := newTestApp(t)
	first := healthy("llm")
	app.RegisterComponent(first)
	app.RegisterComponent(&mockComponent{name: "sse", startErr: errors.New("boom")})

	called := false
	err := app.RunTask(context.Background(), func(context.Context) error { called = true; return nil })
	if err == nil {
		t.Fatal("expected start error")
	}
	if called {
		t.Error("task must not run after a failed startup")
	}
	if !first.stopped {
		t.Error("expected already started component to be stopped")
	}
}

func TestRunTaskHookErrors(t *testing.T) {
	boom := func(context.Context) error { return errors.New("boom") }
	tests := []struct {
		name  string
		setup func(a *App[*testConfig])
	}{
		{"start", func(a *App[*testConfig]) { a.OnStart(boom) }},
		{"ready", func(a *App[*testConfig]) { a.OnReady(boom) }},
		{"configure", func(a *App[*testConfig]) {
			a.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("boom") })
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			tc.setup(app)
			if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
				t.Fatal("expected hook error")
			}
		})
	}
}

func TestRunTaskStopErrorReported(t *testing.T) {
	app := newTestApp(t)
	app.RegisterComponent(&mockComponent{name: "llm", stopErr: errors.New("close failed")})
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected stop error")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	c := healthy("llm")
	app.RegisterComponent(c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !c.stopped {
		t.Error("expected component stopped")
	}
}

func TestSummaryDisplay(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, WithSummaryWriter(&out))
	app.RegisterComponent(&describedComponent{mockComponent: *healthy("llm")})
	app.Summary.TrackClient("web search", "http://localhost:8888", "searxng")

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{"research-test", "LLM", "ollama llama3", "/api/v1/research", "web search", "✅ llm"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}

func TestWithoutSummary(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(t, WithSummaryWriter(&out), WithoutSummary())
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no summary, got %q", out.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if treePrefix(0, 2) != "├──" || treePrefix(1, 2) != "└──" {
		t.Error("unexpected tree prefixes")
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := []struct {
		status component.HealthStatus
		want   string
	}{
		{component.StatusHealthy, "✅"},
		{component.StatusDegraded, "⚠️"},
		{component.StatusUnhealthy, "❌"},
		{"unknown", "❓"},
	}
	for _, tc := range tests {
		if got := healthStatusIcon(tc.status); got != tc.want {
			t.Errorf("healthStatusIcon(%s) = %s, want %s", tc.status, got, tc.want)
		}
	}
}
