package agents

import (
	"context"
	"strconv"
	"strings"

	"github.com/kbukum/deepresearch/httpclient"
)

// SearchHit is one web result handed to the searcher prompt.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"content"`
}

// WebSearch fetches web results for a query.
type WebSearch interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// WebSearchConfig configures the SearXNG web backend. An empty BaseURL
// disables web search; the searcher then relies on the model alone.
type WebSearchConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int    `yaml:"max_results" mapstructure:"max_results" validate:"gte=0"`
	Language   string `yaml:"language" mapstructure:"language"`
}

// SearXNG queries a SearXNG instance's JSON API.
type SearXNG struct {
	client     *httpclient.Client
	maxResults int
	language   string
}

var _ WebSearch = (*SearXNG)(nil)

// NewSearXNG creates a web backend over client, which must point at the
// instance root.
func NewSearXNG(client *httpclient.Client, cfg WebSearchConfig) *SearXNG {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &SearXNG{client: client, maxResults: cfg.MaxResults, language: cfg.Language}
}

type searxResponse struct {
	Results []SearchHit `json:"results"`
}

// Search returns at most MaxResults hits with non-empty URLs.
func (s *SearXNG) Search(ctx context.Context, query string) ([]SearchHit, error) {
	opts := []httpclient.RequestOption{
		httpclient.WithQueryParam("q", query),
		httpclient.WithQueryParam("format", "json"),
		httpclient.WithQueryParam("pageno", strconv.Itoa(1)),
	}
	if s.language != "" {
		opts = append(opts, httpclient.WithQueryParam("language", s.language))
	}
	resp, err := httpclient.Get[searxResponse](ctx, s.client, "/search", opts...)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, s.maxResults)
	for _, h := range resp.Data.Results {
		if h.URL == "" {
			continue
		}
		h.Snippet = strings.Join(strings.Fields(h.Snippet), " ")
		hits = append(hits, h)
		if len(hits) == s.maxResults {
			break
		}
	}
	return hits, nil
}
