package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/deepresearch/research"
)

// frameSource is the part of *research.Stream the views read.
type frameSource interface {
	Next(ctx context.Context) (string, bool, error)
	RunID() string
	Run() *research.PipelineRun
}

// runPlain writes only the new part of each cumulative frame.
func runPlain(ctx context.Context, w io.Writer, src frameSource) error {
	written := 0
	for {
		text, ok, err := src.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, err := io.WriteString(w, text[written:]); err != nil {
			return err
		}
		written = len(text)
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22C55E"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444"))
)

// chromeHeight is the rows used by the header, footer and box border.
const chromeHeight = 4

type frameMsg struct{ text string }

type endMsg struct{ err error }

// model follows one stream. Only one Next call is outstanding at a time:
// the next read is scheduled when the previous frame arrives.
type model struct {
	ctx   context.Context
	src   frameSource
	query string

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	follow   bool

	text   string
	frames int
	ended  bool
	err    error
}

func newModel(ctx context.Context, src frameSource, query string) model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle))
	return model{ctx: ctx, src: src, query: query, spinner: sp, follow: true}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m model) next() tea.Cmd {
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		text, ok, err := src.Next(ctx)
		switch {
		case err != nil:
			return endMsg{err: err}
		case !ok:
			return endMsg{}
		default:
			return frameMsg{text: text}
		}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width, height := msg.Width-2, max(1, msg.Height-chromeHeight)
		if !m.ready {
			m.viewport = viewport.New(width, height)
			m.ready = true
		} else {
			m.viewport.Width, m.viewport.Height = width, height
		}
		m.render()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "G", "end":
			m.follow = true
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd

	case spinner.TickMsg:
		if m.ended {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case frameMsg:
		m.text = msg.text
		m.frames++
		m.render()
		return m, m.next()

	case endMsg:
		m.ended = true
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

// render rewraps the buffer to the viewport width.
func (m *model) render() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(max(20, m.viewport.Width)).Render(m.text))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m model) status() string {
	switch {
	case !m.ended:
		return m.spinner.View() + " " + titleStyle.Render("Researching") + " " + m.query
	case m.err != nil:
		return errStyle.Render("✖ Interrupted") + " " + dimStyle.Render(m.err.Error())
	case m.failed():
		return errStyle.Render("✖ Run failed") + " " + m.query
	default:
		return okStyle.Render("✔ Report ready") + " " + m.query
	}
}

func (m model) failed() bool {
	run := m.src.Run()
	return run == nil || run.Err != nil
}

func (m model) View() string {
	if !m.ready {
		return m.status() + "\n"
	}
	footer := fmt.Sprintf("%d frames", m.frames)
	if id := m.src.RunID(); id != "" {
		footer = "run " + id + " • " + footer
	}
	footer += " • ↑/↓ scroll • G follow • q quit"
	return strings.Join([]string{
		m.status(),
		boxStyle.Render(m.viewport.View()),
		dimStyle.Render(footer),
	}, "\n")
}

// runInteractive shows the run full screen. The final text is printed to
// stdout after the screen is restored so the report stays in scrollback.
func runInteractive(ctx context.Context, src frameSource, query string) error {
	p := tea.NewProgram(newModel(ctx, src, query), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok && m.text != "" {
		fmt.Fprintln(os.Stdout, m.text)
	}
	return nil
}
