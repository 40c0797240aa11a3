package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/httpclient"
)

type mockDialect struct {
	healthPath string
	parseErr   error
}

func (d *mockDialect) Name() string                         { return "mock" }
func (d *mockDialect) DefaultBaseURL() string               { return "" }
func (d *mockDialect) ChatPath() string                     { return "/chat" }
func (d *mockDialect) HealthPath() string                   { return d.healthPath }
func (d *mockDialect) Auth(k string) *httpclient.AuthConfig { return httpclient.BearerAuth(k) }

func (d *mockDialect) BuildRequest(req CompletionRequest) (any, error) {
	return map[string]any{
		"model":       req.Model,
		"messages":    ChatMessages(req),
		"temperature": req.Temperature,
		"json":        req.JSON,
	}, nil
}

func (d *mockDialect) ParseResponse(body []byte) (*CompletionResponse, error) {
	if d.parseErr != nil {
		return nil, d.parseErr
	}
	var raw struct {
		Content string `json:"content"`
		Model   string `json:"model"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	return &CompletionResponse{Content: raw.Content, Model: raw.Model}, nil
}

// echoServer replies with the request's last message and records the body.
func echoServer(t *testing.T, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if got != nil {
			*got = body
		}
		msgs, _ := body["messages"].([]any)
		last, _ := msgs[len(msgs)-1].(map[string]any)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": last["content"], "model": body["model"]})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdapter_Execute_AppliesDefaults(t *testing.T) {
	var got map[string]any
	srv := echoServer(t, &got)

	a, err := NewWithDialect(&mockDialect{}, Config{BaseURL: srv.URL, Model: "m1", Temperature: 0.4})
	if err != nil {
		t.Fatalf("NewWithDialect: %v", err)
	}
	resp, err := a.Execute(context.Background(), CompletionRequest{
		SystemPrompt: "be brief",
		Messages:     []Message{{Role: RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Content != "hello" || resp.Model != "m1" {
		t.Errorf("resp = %+v", resp)
	}
	if got["temperature"] != 0.4 {
		t.Errorf("temperature = %v", got["temperature"])
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["role"] != RoleSystem {
		t.Errorf("messages = %v", msgs)
	}
	if a.Name() != "mock-llm" {
		t.Errorf("Name() = %q", a.Name())
	}
}

func TestAdapter_Execute_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a, _ := NewWithDialect(&mockDialect{}, Config{BaseURL: srv.URL})
	_, err := a.Execute(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !apperrors.HasCode(err, apperrors.ErrCodeExternalService) {
		t.Fatalf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
	}
	if !apperrors.IsRetryable(err) {
		t.Error("5xx should be retryable")
	}
}

func TestAdapter_Execute_ParseError(t *testing.T) {
	srv := echoServer(t, nil)
	a, _ := NewWithDialect(&mockDialect{parseErr: errors.New("bad shape")}, Config{BaseURL: srv.URL})

	_, err := a.Execute(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !apperrors.HasCode(err, apperrors.ErrCodeMalformedResponse) {
		t.Fatalf("expected MALFORMED_RESPONSE, got %v", err)
	}
}

func TestAdapter_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	up, _ := NewWithDialect(&mockDialect{healthPath: "/health"}, Config{BaseURL: srv.URL})
	if !up.IsAvailable(context.Background()) {
		t.Error("expected available")
	}
	down, _ := NewWithDialect(&mockDialect{healthPath: "/missing"}, Config{BaseURL: srv.URL})
	if down.IsAvailable(context.Background()) {
		t.Error("expected unavailable")
	}
}

func TestNewWithDialect_Nil(t *testing.T) {
	if _, err := NewWithDialect(nil, Config{}); !errors.Is(err, ErrNoDialect) {
		t.Fatalf("expected ErrNoDialect, got %v", err)
	}
}

func TestOpen_DialectAndBackend(t *testing.T) {
	srv := echoServer(t, nil)
	RegisterDialect("mock-open", &mockDialect{})

	c, err := Open(Config{Backend: "mock-open", BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	text, err := Complete(context.Background(), c, "", "ping")
	if err != nil || text != "ping" {
		t.Fatalf("Complete = %q, %v", text, err)
	}

	var gotOpts map[string]any
	RegisterBackend("fake-sdk", func(opts map[string]any) (Client, error) {
		gotOpts = opts
		return &fakeClient{reply: "sdk"}, nil
	})
	c, err = Open(Config{Backend: "fake-sdk", Model: "x", APIKey: "k"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotOpts["model"] != "x" || gotOpts["api_key"] != "k" || gotOpts["name"] != "fake-sdk-llm" {
		t.Errorf("options = %v", gotOpts)
	}

	found := false
	for _, name := range Backends() {
		if name == "fake-sdk" {
			found = true
		}
	}
	if !found {
		t.Errorf("Backends() = %v", Backends())
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("expected error for missing backend")
	}
	if _, err := Open(Config{Backend: "nope"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := Open(Config{Backend: "x", Temperature: 3}); err == nil {
		t.Error("expected error for temperature out of range")
	}
}
