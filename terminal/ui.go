package terminal

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/engine"
)

// UIOptions configures a UI.
type UIOptions struct {
	// Input defaults to os.Stdin.
	Input io.Reader
	// Output defaults to os.Stdout.
	Output io.Writer
	// Agents fixes the color order of agent names.
	Agents []string
	// Title is shown in the status line.
	Title string
}

type (
	turnMsg   engine.TurnEvent
	noticeMsg engine.Notice
)

// UI is the interactive terminal front end.
//
// Key handling runs on the bubbletea event loop; decoded intents are handed
// to the dispatcher through Next. Engine output arrives via PresentTurn and
// PresentNotice and is printed above the input line.
type UI struct {
	program *tea.Program
	intents chan core.Intent
	done    chan struct{}
	runOnce sync.Once
}

// NewUI creates the terminal UI. Call Run to start it.
func NewUI(optFns ...func(o *UIOptions)) *UI {
	opts := UIOptions{
		Input:  os.Stdin,
		Output: os.Stdout,
		Title:  "parley",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	u := &UI{
		intents: make(chan core.Intent, 16),
		done:    make(chan struct{}),
	}

	theme := NewTheme(lipgloss.NewRenderer(opts.Output), opts.Agents...)
	u.program = tea.NewProgram(
		newUIModel(theme, opts.Title, u.deliver),
		tea.WithInput(opts.Input),
		tea.WithOutput(opts.Output),
	)

	return u
}

// Run blocks until the program exits: on the stopped notice, on Quit or
// when ctx is done.
func (u *UI) Run(ctx context.Context) error {
	var err error

	u.runOnce.Do(func() {
		defer close(u.done)

		stop := context.AfterFunc(ctx, u.program.Quit)
		defer stop()

		_, err = u.program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			err = nil
		}
	})

	return err
}

// Quit asks the program to exit.
func (u *UI) Quit() { u.program.Quit() }

// Next implements input.Source. It reports io.EOF once the program exited
// and every intent was consumed.
func (u *UI) Next(ctx context.Context) (core.Intent, error) {
	select {
	case <-ctx.Done():
		return core.None(), ctx.Err()
	case intent := <-u.intents:
		return intent, nil
	case <-u.done:
		select {
		case intent := <-u.intents:
			return intent, nil
		default:
			return core.None(), io.EOF
		}
	}
}

// PresentTurn implements engine.Presenter.
func (u *UI) PresentTurn(ev engine.TurnEvent) { u.program.Send(turnMsg(ev)) }

// PresentNotice implements engine.Presenter.
func (u *UI) PresentNotice(n engine.Notice) { u.program.Send(noticeMsg(n)) }

// deliver runs inside a tea.Cmd goroutine, never on the event loop.
func (u *UI) deliver(intent core.Intent) {
	select {
	case u.intents <- intent:
	case <-u.done:
	}
}

type uiModel struct {
	theme   *Theme
	title   string
	input   textinput.Model
	sink    func(core.Intent)
	paused  bool
	stopped bool
	width   int
}

func newUIModel(theme *Theme, title string, sink func(core.Intent)) uiModel {
	input := textinput.New()
	input.Placeholder = "Type a message and press Enter"
	input.Prompt = "> "
	input.CharLimit = 2000
	input.Focus()

	return uiModel{theme: theme, title: title, input: input, sink: sink}
}

func (m uiModel) emit(intent core.Intent) tea.Cmd {
	return func() tea.Msg {
		m.sink(intent)
		return nil
	}
}

func (m uiModel) Init() tea.Cmd { return textinput.Blink }

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-4)

		return m, nil
	case turnMsg:
		return m, tea.Println("\n" + m.theme.FormatTurn(engine.TurnEvent(msg)) + "\n")
	case noticeMsg:
		switch msg.Kind {
		case engine.NoticePaused:
			m.paused = true
		case engine.NoticeResumed:
			m.paused = false
		}

		line := tea.Println(m.theme.FormatNotice(engine.Notice(msg)))
		if msg.Kind == engine.NoticeStopped {
			m.stopped = true
			return m, tea.Sequence(line, tea.Quit)
		}

		return m, line
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.stopped = true
			return m, m.emit(core.Stop())
		case tea.KeyEsc:
			return m, m.emit(core.TogglePause())
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()

			if text == "" {
				return m, nil
			}

			return m, tea.Batch(tea.Println(m.theme.FormatUser(text)), m.emit(core.SubmitText(text)))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m uiModel) View() string {
	state := "running"

	switch {
	case m.stopped:
		state = "stopping"
	case m.paused:
		state = "paused"
	}

	status := m.theme.status.Render(m.title+" · "+state) + " " +
		m.theme.help.Render("esc pause/resume · enter send · ctrl+c quit")

	return status + "\n" + m.input.View() + "\n"
}
