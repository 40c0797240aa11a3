package agents

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompt is one stage's system prompt plus the template rendering its
// user turn.
type Prompt struct {
	System string `yaml:"system"`
	Input  string `yaml:"input"`

	system *template.Template
	input  *template.Template
}

// Prompts holds the three stage prompts.
type Prompts struct {
	Planner  Prompt `yaml:"planner"`
	Searcher Prompt `yaml:"searcher"`
	Writer   Prompt `yaml:"writer"`
}

var funcs = template.FuncMap{"inc": func(i int) int { return i + 1 }}

// DefaultPrompts returns the bundled prompts.
func DefaultPrompts() (*Prompts, error) {
	return ParsePrompts(defaultPrompts)
}

// LoadPrompts reads a prompts file. Stages missing from it keep the
// bundled prompt.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agents: read prompts %s: %w", path, err)
	}
	p, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	if err := p.merge(data); err != nil {
		return nil, fmt.Errorf("agents: %s: %w", path, err)
	}
	return p, nil
}

// ParsePrompts decodes and compiles a complete prompts document.
func ParsePrompts(data []byte) (*Prompts, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("agents: prompts payload is empty")
	}
	p := &Prompts{}
	if err := p.merge(data); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prompts) merge(data []byte) error {
	var overlay Prompts
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("agents: decode prompts: %w", err)
	}
	for _, s := range []struct {
		name      string
		dst, from *Prompt
	}{
		{"planner", &p.Planner, &overlay.Planner},
		{"searcher", &p.Searcher, &overlay.Searcher},
		{"writer", &p.Writer, &overlay.Writer},
	} {
		if s.from.System != "" {
			s.dst.System = s.from.System
		}
		if s.from.Input != "" {
			s.dst.Input = s.from.Input
		}
		if err := s.dst.compile(s.name); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prompt) compile(name string) error {
	if p.System == "" || p.Input == "" {
		return fmt.Errorf("agents: %s prompt needs both system and input", name)
	}
	var err error
	if p.system, err = template.New(name + ".system").Funcs(funcs).Parse(p.System); err != nil {
		return fmt.Errorf("agents: %s system template: %w", name, err)
	}
	if p.input, err = template.New(name + ".input").Funcs(funcs).Parse(p.Input); err != nil {
		return fmt.Errorf("agents: %s input template: %w", name, err)
	}
	return nil
}

// Render executes both templates against data.
func (p *Prompt) Render(data any) (system, input string, err error) {
	if system, err = execute(p.system, data); err != nil {
		return "", "", err
	}
	if input, err = execute(p.input, data); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(system), input, nil
}

func execute(t *template.Template, data any) (string, error) {
	if t == nil {
		return "", fmt.Errorf("agents: prompt not compiled")
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("agents: render %s: %w", t.Name(), err)
	}
	return b.String(), nil
}
