// Package openai registers the "openai" dialect: the chat completions API
// served by OpenAI and the many servers that copy it (vLLM, LM Studio,
// llama.cpp, OpenRouter).
package openai

import (
	"encoding/json"
	"errors"

	"github.com/kbukum/deepresearch/httpclient"
	"github.com/kbukum/deepresearch/llm"
)

// DialectName is the registered dialect name.
const DialectName = "openai"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect implements llm.Dialect for /chat/completions.
type Dialect struct{}

var _ llm.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string           { return DialectName }
func (d *Dialect) DefaultBaseURL() string { return "https://api.openai.com/v1" }
func (d *Dialect) ChatPath() string       { return "/chat/completions" }
func (d *Dialect) HealthPath() string     { return "/models" }

func (d *Dialect) Auth(apiKey string) *httpclient.AuthConfig {
	if apiKey == "" {
		return nil
	}
	return httpclient.BearerAuth(apiKey)
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

// BuildRequest maps the universal request to a chat completions body.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	body := chatRequest{
		Model:     req.Model,
		Messages:  llm.ChatMessages(req),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return body, nil
}

// ParseResponse takes the first choice.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}
