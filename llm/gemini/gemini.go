// Package gemini registers the "gemini" backend, which talks to the Gemini
// API through the google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/llm"
	"github.com/kbukum/deepresearch/provider"
)

const (
	// BackendName is the registered backend name.
	BackendName = "gemini"

	defaultModel = "gemini-2.5-flash"
)

func init() {
	llm.RegisterBackend(BackendName, Factory())
}

// Config holds configuration for the Gemini backend.
type Config struct {
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// generator is the slice of *genai.Models the backend uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider implements llm.Client on top of the genai SDK.
type Provider struct {
	cfg    Config
	models generator
}

var _ llm.Client = (*Provider)(nil)

// New creates a Gemini client. The API key falls back to the SDK's own
// environment lookup (GOOGLE_API_KEY / GEMINI_API_KEY) when empty.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newProvider(cfg, client.Models), nil
}

func newProvider(cfg Config, models generator) *Provider {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Name == "" {
		cfg.Name = BackendName + "-llm"
	}
	return &Provider{cfg: cfg, models: models}
}

// Factory builds providers from llm.Config.Options().
func Factory() provider.Factory[llm.Client] {
	return func(opts map[string]any) (llm.Client, error) {
		cfg := Config{}
		if v, ok := opts["name"].(string); ok {
			cfg.Name = v
		}
		if v, ok := opts["api_key"].(string); ok {
			cfg.APIKey = v
		}
		if v, ok := opts["base_url"].(string); ok {
			cfg.BaseURL = v
		}
		if v, ok := opts["model"].(string); ok {
			cfg.Model = v
		}
		if v, ok := opts["temperature"].(float64); ok {
			cfg.Temperature = v
		}
		if v, ok := opts["max_tokens"].(int); ok {
			cfg.MaxTokens = v
		}
		if v, ok := opts["timeout"].(time.Duration); ok {
			cfg.Timeout = v
		}
		return New(context.Background(), cfg)
	}
}

func (p *Provider) Name() string { return p.cfg.Name }

// IsAvailable reports whether a client was configured. The SDK exposes no
// cheap health probe.
func (p *Provider) IsAvailable(context.Context) bool { return p.models != nil }

// Execute runs one GenerateContent call.
func (p *Provider) Execute(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	resp, err := p.models.GenerateContent(ctx, model, contents(req.Messages), p.generateConfig(req))
	if err != nil {
		return llm.CompletionResponse{}, classify(ctx, p.cfg.Name, err)
	}

	out := llm.CompletionResponse{Content: resp.Text(), Model: model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	if out.Content == "" {
		return llm.CompletionResponse{}, apperrors.MalformedResponse(p.cfg.Name, errors.New("empty candidate text"))
	}
	return out, nil
}

func (p *Provider) generateConfig(req llm.CompletionRequest) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}

	temp := req.Temperature
	if temp == 0 {
		temp = p.cfg.Temperature
	}
	if temp > 0 {
		gc.Temperature = genai.Ptr(float32(temp))
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}
	if maxTokens > 0 {
		gc.MaxOutputTokens = int32(maxTokens)
	}

	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}
	return gc
}

// contents maps chat messages onto genai turns. Gemini has no system role
// inside contents, so system messages are sent as user turns.
func contents(msgs []llm.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleAssistant {
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleModel))
			continue
		}
		out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	return out
}

func classify(ctx context.Context, service string, err error) error {
	if ctx.Err() != nil {
		return apperrors.Timeout(service + " generate").WithCause(err)
	}
	code, ok := statusCode(err)
	if ok {
		switch {
		case code == 429:
			return apperrors.RateLimited().WithDetail("service", service).WithCause(err)
		case code >= 500:
			return apperrors.ExternalServiceError(service, err).WithDetail("status", code)
		default:
			e := apperrors.ExternalServiceError(service, err).WithDetail("status", code)
			e.Retryable = false
			return e
		}
	}
	return apperrors.ExternalServiceError(service, err)
}

func statusCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}
