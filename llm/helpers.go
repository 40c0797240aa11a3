package llm

import (
	"context"
	"encoding/json"
	"strings"

	apperrors "github.com/kbukum/deepresearch/errors"
)

// Complete sends a system and a user prompt and returns the text reply.
func Complete(ctx context.Context, c Client, system, user string) (string, error) {
	resp, err := c.Execute(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// CompleteStructured asks for a JSON object and decodes it into result.
func CompleteStructured(ctx context.Context, c Client, system, user string, result any) error {
	system += "\n\nIMPORTANT: Respond with ONLY the JSON object. " +
		"No markdown, no code blocks, no explanations. " +
		"Start with { and end with }."

	resp, err := c.Execute(ctx, CompletionRequest{
		SystemPrompt: system,
		Messages:     []Message{{Role: RoleUser, Content: user}},
		JSON:         true,
	})
	if err != nil {
		return err
	}

	if err := DecodeJSON(resp.Content, result); err != nil {
		return apperrors.MalformedResponse(c.Name(), err).WithDetail("content", truncate(resp.Content, 200))
	}
	return nil
}

// DecodeJSON unmarshals the JSON object embedded in model output.
func DecodeJSON(content string, v any) error {
	return json.Unmarshal([]byte(extractJSON(content)), v)
}

// extractJSON pulls a JSON object out of output that may be wrapped in
// markdown fences or prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s[3:], "\n"); idx >= 0 {
			s = s[3+idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
