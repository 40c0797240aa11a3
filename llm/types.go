package llm

import "github.com/kbukum/deepresearch/provider"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// CompletionRequest is the universal input for all backends.
type CompletionRequest struct {
	// Model overrides the backend's default model.
	Model        string    `json:"model,omitempty" yaml:"model"`
	Messages     []Message `json:"messages" yaml:"messages"`
	SystemPrompt string    `json:"system_prompt,omitempty" yaml:"system_prompt"`
	Temperature  float64   `json:"temperature,omitempty" yaml:"temperature"`
	// MaxTokens limits the response length. 0 means backend default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens"`
	// JSON asks the backend to constrain output to a JSON object when it
	// supports doing so.
	JSON bool `json:"json,omitempty" yaml:"json"`
	// Extra holds backend-specific fields; dialects decide what to do with them.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra"`
}

// CompletionResponse is the universal output of all backends.
type CompletionResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Client is the provider contract every backend implements.
type Client = provider.RequestResponse[CompletionRequest, CompletionResponse]
