package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/llm"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     10,
			CandidatesTokenCount: 4,
			TotalTokenCount:      14,
		},
	}
}

func TestExecute(t *testing.T) {
	f := &fakeModels{resp: textResponse(`{"searches":[]}`)}
	p := newProvider(Config{Temperature: 0.3, MaxTokens: 256}, f)

	resp, err := p.Execute(context.Background(), llm.CompletionRequest{
		SystemPrompt: "plan",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "q"},
			{Role: llm.RoleAssistant, Content: "a"},
		},
		JSON: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Content != `{"searches":[]}` || resp.Usage.TotalTokens != 14 {
		t.Errorf("resp = %+v", resp)
	}
	if f.model != defaultModel {
		t.Errorf("model = %q", f.model)
	}
	if len(f.contents) != 2 || f.contents[1].Role != string(genai.RoleModel) {
		t.Errorf("contents = %+v", f.contents)
	}
	if f.config.ResponseMIMEType != "application/json" {
		t.Errorf("mime = %q", f.config.ResponseMIMEType)
	}
	if f.config.SystemInstruction == nil || f.config.MaxOutputTokens != 256 {
		t.Errorf("config = %+v", f.config)
	}
	if f.config.Temperature == nil || *f.config.Temperature != float32(0.3) {
		t.Errorf("temperature = %v", f.config.Temperature)
	}
	if p.Name() != "gemini-llm" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestExecute_Errors(t *testing.T) {
	p := newProvider(Config{}, &fakeModels{err: genai.APIError{Code: 429, Message: "quota"}})
	_, err := p.Execute(context.Background(), llm.CompletionRequest{})
	if !apperrors.HasCode(err, apperrors.ErrCodeRateLimited) {
		t.Errorf("429: got %v", err)
	}

	p = newProvider(Config{}, &fakeModels{err: genai.APIError{Code: 400, Message: "bad"}})
	_, err = p.Execute(context.Background(), llm.CompletionRequest{})
	if !apperrors.HasCode(err, apperrors.ErrCodeExternalService) || apperrors.IsRetryable(err) {
		t.Errorf("400: got %v", err)
	}

	p = newProvider(Config{}, &fakeModels{err: errors.New("boom")})
	_, err = p.Execute(context.Background(), llm.CompletionRequest{})
	if !apperrors.IsRetryable(err) {
		t.Errorf("unknown error should be retryable: %v", err)
	}

	p = newProvider(Config{}, &fakeModels{resp: &genai.GenerateContentResponse{}})
	_, err = p.Execute(context.Background(), llm.CompletionRequest{})
	if !apperrors.HasCode(err, apperrors.ErrCodeMalformedResponse) {
		t.Errorf("empty: got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	found := false
	for _, name := range llm.Backends() {
		if name == BackendName {
			found = true
		}
	}
	if !found {
		t.Errorf("gemini not registered: %v", llm.Backends())
	}
}
