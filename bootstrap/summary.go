package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/deepresearch/component"
)

// ClientInfo describes an outbound dependency such as the model backend or
// the web search engine.
type ClientInfo struct {
	Name   string
	Target string
	Type   string
}

// Summary prints what the binary started with: components, routes, remote
// clients and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	clients         []ClientInfo
	out             io.Writer
}

func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: os.Stdout}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackClient records an outbound dependency.
func (s *Summary) TrackClient(name, target, clientType string) {
	s.clients = append(s.clients, ClientInfo{Name: name, Target: target, Type: clientType})
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Display writes the summary, collecting descriptions, routes and health
// from registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n\n", headerStyle.Render(fmt.Sprintf("🚀 %s %s started in %.2fs",
		s.serviceName, s.version, s.startupDuration.Seconds())))

	var infra []component.Description
	var routes []component.Route
	if registry != nil {
		for _, c := range registry.All() {
			if d, ok := c.(component.Describable); ok {
				desc := d.Describe()
				if desc.Name == "" {
					desc.Name = c.Name()
				}
				infra = append(infra, desc)
			}
			if rp, ok := c.(component.RouteProvider); ok {
				routes = append(routes, rp.Routes()...)
			}
		}
	}

	if len(infra) > 0 {
		b.WriteString("📊 Components\n")
		for i, d := range infra {
			fmt.Fprintf(&b, "   %s %s %s\n", treePrefix(i, len(infra)), d.Name, dimStyle.Render("["+d.Type+"] "+d.Details))
		}
		b.WriteString("\n")
	}

	if len(s.clients) > 0 {
		b.WriteString("🔌 Clients\n")
		for i, c := range s.clients {
			fmt.Fprintf(&b, "   %s %s → %s %s\n", treePrefix(i, len(s.clients)), c.Name, c.Target, dimStyle.Render("("+c.Type+")"))
		}
		b.WriteString("\n")
	}

	if len(routes) > 0 {
		fmt.Fprintf(&b, "🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			method := methodColor(r.Method).Render(fmt.Sprintf("%-6s", r.Method))
			fmt.Fprintf(&b, "   %s %s %s → %s\n", treePrefix(i, len(routes)), method, r.Path, r.Handler)
		}
		b.WriteString("\n")
	}

	if registry != nil {
		if health := registry.HealthAll(ctx); len(health) > 0 {
			b.WriteString("🏥 Health\n")
			for i, h := range health {
				msg := ""
				if h.Message != "" {
					msg = " " + dimStyle.Render(h.Message)
				}
				fmt.Fprintf(&b, "   %s %s %s%s\n", treePrefix(i, len(health)), healthStatusIcon(h.Status), h.Name, msg)
			}
			b.WriteString("\n")
		}
	}

	_, _ = io.WriteString(s.out, b.String())
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}

func methodColor(method string) lipgloss.Style {
	switch method {
	case "GET":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	case "POST":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	case "DELETE":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	}
}
