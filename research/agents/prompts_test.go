package agents

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/deepresearch/research"
)

func TestDefaultPrompts_RenderInputs(t *testing.T) {
	p, err := DefaultPrompts()
	if err != nil {
		t.Fatalf("DefaultPrompts: %v", err)
	}

	system, input, err := p.Planner.Render(struct {
		Query           string
		HowManySearches int
	}{"quantum batteries", 3})
	if err != nil {
		t.Fatalf("planner render: %v", err)
	}
	if input != "Query: quantum batteries" {
		t.Errorf("planner input = %q", input)
	}
	if !strings.Contains(system, "between 1\nand 3 search terms") {
		t.Errorf("planner system = %q", system)
	}

	_, input, err = p.Searcher.Render(struct {
		research.WorkItem
		Hits []SearchHit
	}{WorkItem: research.WorkItem{Query: "q", Reason: "r"}})
	if err != nil {
		t.Fatalf("searcher render: %v", err)
	}
	if input != "Search term: q\nReason for searching: r" {
		t.Errorf("searcher input = %q", input)
	}

	_, input, err = p.Writer.Render(research.WriteRequest{Query: "q", Results: []string{"one", "two"}})
	if err != nil {
		t.Fatalf("writer render: %v", err)
	}
	want := "Original query: q\nSummarized search results:\n\n### Result 1\none\n\n### Result 2\ntwo"
	if input != want {
		t.Errorf("writer input = %q, want %q", input, want)
	}

	_, input, _ = p.Writer.Render(research.WriteRequest{Query: "q"})
	if !strings.HasSuffix(input, "(no search results were available)") {
		t.Errorf("empty writer input = %q", input)
	}
}

func TestSearcherPrompt_WithHits(t *testing.T) {
	p, _ := DefaultPrompts()
	_, input, err := p.Searcher.Render(struct {
		research.WorkItem
		Hits []SearchHit
	}{
		WorkItem: research.WorkItem{Query: "q", Reason: "r"},
		Hits:     []SearchHit{{Title: "A", URL: "https://a", Snippet: "alpha"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "Search term: q\nReason for searching: r\n\nWeb results:\n[1] A (https://a)\nalpha"
	if input != want {
		t.Errorf("input = %q, want %q", input, want)
	}
}

func TestLoadPrompts_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	data := "planner:\n  input: \"Topic => {{.Query}}\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	_, input, _ := p.Planner.Render(struct {
		Query           string
		HowManySearches int
	}{"x", 1})
	if input != "Topic => x" {
		t.Errorf("input = %q", input)
	}
	if p.Writer.System == "" {
		t.Error("writer prompt should keep the bundled default")
	}
}

func TestParsePrompts_Errors(t *testing.T) {
	if _, err := ParsePrompts(nil); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := ParsePrompts([]byte("planner:\n  system: x\n")); err == nil {
		t.Error("expected error for incomplete prompts")
	}
	if _, err := ParsePrompts([]byte("planner: [")); err == nil {
		t.Error("expected decode error")
	}
	bad := "planner: {system: a, input: '{{.Query'}\nsearcher: {system: a, input: b}\nwriter: {system: a, input: b}\n"
	if _, err := ParsePrompts([]byte(bad)); err == nil {
		t.Error("expected template error")
	}
	if _, err := LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
