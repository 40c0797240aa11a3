// Package ollama registers the "ollama" dialect for Ollama's native chat API.
package ollama

import (
	"encoding/json"
	"errors"

	"github.com/kbukum/deepresearch/httpclient"
	"github.com/kbukum/deepresearch/llm"
)

const (
	// DialectName is the registered dialect name.
	DialectName = "ollama"

	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3"
)

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect implements llm.Dialect for /api/chat.
type Dialect struct{}

var _ llm.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string                       { return DialectName }
func (d *Dialect) DefaultBaseURL() string             { return defaultBaseURL }
func (d *Dialect) ChatPath() string                   { return "/api/chat" }
func (d *Dialect) HealthPath() string                 { return "/api/tags" }
func (d *Dialect) Auth(string) *httpclient.AuthConfig { return nil }

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []llm.Message  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   any            `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         llm.Message `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// BuildRequest maps the universal request to a non-streaming chat body.
// A "format" entry in Extra (a JSON schema) overrides plain JSON mode.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	body := chatRequest{
		Model:    model,
		Messages: llm.ChatMessages(req),
	}

	opts := map[string]any{}
	if req.Temperature > 0 {
		opts["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) > 0 {
		body.Options = opts
	}

	if req.JSON {
		body.Format = "json"
	}
	if f, ok := req.Extra["format"]; ok {
		body.Format = f
	}
	return body, nil
}

func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Message.Content == "" && !resp.Done {
		return nil, errors.New("ollama: empty response")
	}
	return &llm.CompletionResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}
