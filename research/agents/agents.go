package agents

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/llm"
	"github.com/kbukum/deepresearch/provider"
	"github.com/kbukum/deepresearch/research"
)

const defaultHowManySearches = 5

// NewPlanner returns a Planner that asks the model for at most
// howMany searches. Extra items are trimmed; items without a query are
// dropped.
func NewPlanner(client llm.Client, prompts *Prompts, howMany int) research.Planner {
	if howMany <= 0 {
		howMany = defaultHowManySearches
	}
	return provider.Adapt(client, "planner",
		func(_ context.Context, query string) (llm.CompletionRequest, error) {
			data := struct {
				Query           string
				HowManySearches int
			}{query, howMany}
			return request(&prompts.Planner, data, true)
		},
		func(resp llm.CompletionResponse) (research.WorkPlan, error) {
			var plan research.WorkPlan
			if err := llm.DecodeJSON(resp.Content, &plan); err != nil {
				return research.WorkPlan{}, apperrors.MalformedResponse("planner", err)
			}
			items := plan.Items[:0]
			for _, it := range plan.Items {
				it.Query = strings.TrimSpace(it.Query)
				if it.Query == "" {
					continue
				}
				it.Reason = strings.TrimSpace(it.Reason)
				items = append(items, it)
			}
			if len(items) > howMany {
				items = items[:howMany]
			}
			plan.Items = items
			return plan, nil
		},
	)
}

// NewSearcher returns a Searcher that summarizes one work item. With a
// non-nil web backend the top hits are fetched first and handed to the
// model; a failing web backend fails the item.
func NewSearcher(client llm.Client, prompts *Prompts, web WebSearch) research.Searcher {
	return provider.Adapt(client, "searcher",
		func(ctx context.Context, item research.WorkItem) (llm.CompletionRequest, error) {
			data := struct {
				research.WorkItem
				Hits []SearchHit
			}{WorkItem: item}
			if web != nil {
				hits, err := web.Search(ctx, item.Query)
				if err != nil {
					return llm.CompletionRequest{}, err
				}
				data.Hits = hits
			}
			return request(&prompts.Searcher, data, false)
		},
		func(resp llm.CompletionResponse) (string, error) {
			summary := strings.TrimSpace(resp.Content)
			if summary == "" {
				return "", apperrors.MalformedResponse("searcher", errors.New("empty summary"))
			}
			return summary, nil
		},
	)
}

// NewWriter returns a Writer producing a Report. A reply that is not the
// expected JSON object but still carries text is kept as the markdown body.
func NewWriter(client llm.Client, prompts *Prompts) research.Writer {
	return provider.Adapt(client, "writer",
		func(_ context.Context, req research.WriteRequest) (llm.CompletionRequest, error) {
			return request(&prompts.Writer, req, true)
		},
		func(resp llm.CompletionResponse) (research.Report, error) {
			var report research.Report
			if err := llm.DecodeJSON(resp.Content, &report); err == nil && strings.TrimSpace(report.Markdown) != "" {
				return report, nil
			}
			text := strings.TrimSpace(resp.Content)
			if text == "" || strings.HasPrefix(text, "{") {
				return research.Report{}, apperrors.MalformedResponse("writer", errors.New("no markdown_report in reply"))
			}
			return research.Report{Markdown: text}, nil
		},
	)
}

func request(p *Prompt, data any, jsonMode bool) (llm.CompletionRequest, error) {
	system, input, err := p.Render(data)
	if err != nil {
		return llm.CompletionRequest{}, apperrors.Internal(err)
	}
	return llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: input}},
		JSON:         jsonMode,
	}, nil
}
