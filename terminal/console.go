package terminal

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/hupe1980/parley/engine"
)

// Console writes turns and notices to w. Colors degrade to plain text when w
// is not a terminal.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	theme *Theme
}

// NewConsole creates a console presenter; agents fixes the color order.
func NewConsole(w io.Writer, agents ...string) *Console {
	return &Console{w: w, theme: NewTheme(lipgloss.NewRenderer(w), agents...)}
}

// PresentTurn implements engine.Presenter.
func (c *Console) PresentTurn(ev engine.TurnEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.w, "\n%s\n\n", c.theme.FormatTurn(ev))
}

// PresentNotice implements engine.Presenter.
func (c *Console) PresentNotice(n engine.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.w, c.theme.FormatNotice(n))
}
