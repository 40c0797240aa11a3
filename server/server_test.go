package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/deepresearch/component"
	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/server/middleware"
)

func newTestServer() *Server {
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	return New(cfg, logger.Nop())
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodySize != "64KB" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Port = 70000
	err := cfg.Validate()
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("expected port validation error, got %v", err)
	}
}

func TestDefaultEndpoints(t *testing.T) {
	s := newTestServer()
	s.ApplyDefaults("deepresearch", func(context.Context) []component.Health {
		return []component.Health{{Name: "llm", Status: component.StatusHealthy}}
	})

	for _, path := range []string{"/health", "/ready", "/info"} {
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
		if rr.Header().Get(middleware.HeaderRequestID) == "" {
			t.Errorf("%s: middleware stack not applied", path)
		}
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody apperrors.ErrorCode
	}{
		{"app error", apperrors.InvalidInput("query", "must not be empty"), http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"not found", apperrors.NotFound("run", "abc"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := gin.New()
			engine.GET("/", func(c *gin.Context) { RespondWithError(c, tc.err) })

			rr := httptest.NewRecorder()
			engine.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error.Code != tc.wantBody {
				t.Errorf("expected %s, got %s", tc.wantBody, body.Error.Code)
			}
		})
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"github.com/kbukum/deepresearch/internal/api.(*Handler).StartRun-fm", "Handler.StartRun"},
		{"github.com/kbukum/deepresearch/server/endpoint.Health.func1", "health"},
		{"main.main.func2", "main"},
	}
	for _, tc := range tests {
		if got := formatHandlerName(tc.in); got != tc.want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoutesSystemLast(t *testing.T) {
	s := newTestServer()
	s.RegisterDefaultEndpoints("deepresearch", nil)
	s.GinEngine().POST("/api/v1/research", func(c *gin.Context) {})

	routes := NewComponent(s).Routes()
	if len(routes) != 4 {
		t.Fatalf("expected 4 routes, got %d", len(routes))
	}
	if routes[0].Path != "/api/v1/research" {
		t.Errorf("expected API route first, got %s", routes[0].Path)
	}
}

func TestStartStop(t *testing.T) {
	s := newTestServer()
	s.ApplyDefaults("deepresearch", nil)
	sc := NewComponent(s)

	if h := sc.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := sc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h := sc.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	if err := sc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
