// Package terminal renders the conversation on a terminal and reads raw
// keys from it.
//
// UI is a bubbletea program acting both as input.Source and
// engine.Presenter: esc toggles pause, ctrl+c stops, enter submits the
// typed line. Console is a write-only presenter for plain output, used with
// line input or when stdin is not a terminal.
package terminal

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/hupe1980/parley/engine"
)

var palette = []lipgloss.Color{
	lipgloss.Color("#01cdfe"),
	lipgloss.Color("#05ffa1"),
	lipgloss.Color("#ff71ce"),
	lipgloss.Color("#ffd166"),
	lipgloss.Color("#b967ff"),
	lipgloss.Color("#fffb96"),
}

// Theme holds the styles shared by UI and Console. Agents get a color by
// order of first appearance.
type Theme struct {
	renderer *lipgloss.Renderer

	mu     sync.Mutex
	agents map[string]lipgloss.Style

	user   lipgloss.Style
	notice lipgloss.Style
	failed lipgloss.Style
	status lipgloss.Style
	help   lipgloss.Style
}

// NewTheme creates styles for renderer r, pre-assigning colors to agents in order.
func NewTheme(r *lipgloss.Renderer, agents ...string) *Theme {
	muted := lipgloss.Color("#9ca3d8")

	t := &Theme{
		renderer: r,
		agents:   make(map[string]lipgloss.Style, len(agents)),
		user:     r.NewStyle().Foreground(lipgloss.Color("#f3f3ff")).Bold(true),
		notice:   r.NewStyle().Foreground(muted).Italic(true),
		failed:   r.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
		status:   r.NewStyle().Foreground(lipgloss.Color("#01cdfe")).Bold(true),
		help:     r.NewStyle().Foreground(muted),
	}

	for _, name := range agents {
		t.Agent(name)
	}

	return t
}

// Agent returns the style of an agent's name.
func (t *Theme) Agent(name string) lipgloss.Style {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.agents[name]; ok {
		return s
	}

	s := t.renderer.NewStyle().Foreground(palette[len(t.agents)%len(palette)]).Bold(true)
	t.agents[name] = s

	return s
}

// FormatTurn renders a turn as a name header followed by the reply.
func (t *Theme) FormatTurn(ev engine.TurnEvent) string {
	header := t.Agent(ev.DisplayName).Render(ev.DisplayName + ":")

	body := strings.TrimSpace(ev.Reply)
	if ev.Failed() {
		body = t.failed.Render(body)
	}

	return fmt.Sprintf("%s\n%s", header, body)
}

// FormatNotice renders a notice line.
func (t *Theme) FormatNotice(n engine.Notice) string {
	return t.notice.Render(n.Text)
}

// FormatUser renders a line typed by the user.
func (t *Theme) FormatUser(text string) string {
	return t.user.Render("You:") + " " + text
}
