package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/httpclient"
	"github.com/kbukum/deepresearch/provider"
)

var ErrNoDialect = errors.New("llm: dialect is required")

var (
	_ Client             = (*Adapter)(nil)
	_ provider.Closeable = (*Adapter)(nil)
)

// Adapter is an HTTP backend: an httpclient.Client plus a Dialect.
type Adapter struct {
	http      *httpclient.Client
	dialect   Dialect
	model     string
	temp      float64
	maxTokens int
}

// New creates an adapter using the dialect registered under cfg.Backend.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()
	dialect, err := GetDialect(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an adapter with an explicit dialect.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	if cfg.Backend == "" {
		cfg.Backend = dialect.Name()
	}
	cfg.ApplyDefaults()
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = dialect.DefaultBaseURL()
	}
	client, err := httpclient.New(httpclient.Config{
		Name:    cfg.Name,
		BaseURL: baseURL,
		Timeout: cfg.Timeout,
		Auth:    dialect.Auth(cfg.APIKey),
		Headers: cfg.Headers,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{
		http:      client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (a *Adapter) Name() string { return a.http.Name() }

// IsAvailable probes the dialect's health endpoint.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	if hp := a.dialect.HealthPath(); hp != "" {
		_, err := a.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: hp})
		return err == nil
	}
	return a.http.IsAvailable(ctx)
}

func (a *Adapter) Close(ctx context.Context) error { return a.http.Close(ctx) }

// Dialect returns the dialect used by this adapter.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// Execute sends a completion request and returns the full response.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, apperrors.InvalidInput("request", err.Error())
	}

	resp, err := httpclient.Post[json.RawMessage](ctx, a.http, a.dialect.ChatPath(), body)
	if err != nil {
		return CompletionResponse{}, err
	}

	result, err := a.dialect.ParseResponse(resp.Data)
	if err != nil {
		return CompletionResponse{}, apperrors.MalformedResponse(a.Name(), err)
	}
	return *result, nil
}

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}

// ChatMessages returns req.Messages with the system prompt prepended. Most
// chat dialects send it this way.
func ChatMessages(req CompletionRequest) []Message {
	if req.SystemPrompt == "" {
		return req.Messages
	}
	msgs := make([]Message, 0, len(req.Messages)+1)
	msgs = append(msgs, Message{Role: RoleSystem, Content: req.SystemPrompt})
	return append(msgs, req.Messages...)
}
