package terminal

import (
	"bytes"
	"context"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/engine"
	"github.com/hupe1980/parley/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ engine.Presenter = (*Console)(nil)
	_ engine.Presenter = (*UI)(nil)
	_ input.Source     = (*UI)(nil)
)

// runCmd executes cmd and any batched commands it expands to.
func runCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}

	if batch, ok := cmd().(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(c)
		}
	}
}

func newTestModel() (uiModel, *[]core.Intent) {
	var got []core.Intent

	theme := NewTheme(lipgloss.NewRenderer(io.Discard), "Alice", "Bob")

	return newUIModel(theme, "test", func(i core.Intent) { got = append(got, i) }), &got
}

func update(m uiModel, msg tea.Msg) (uiModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(uiModel), cmd
}

func TestUIModel_KeyMapping(t *testing.T) {
	m, got := newTestModel()

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	runCmd(cmd)

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("  We open the door ")})
	runCmd(cmd)
	assert.Equal(t, "  We open the door ", m.input.Value())

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	runCmd(cmd)
	assert.Empty(t, m.input.Value())

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "empty line submits nothing")

	m, cmd = update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	runCmd(cmd)
	assert.True(t, m.stopped)

	assert.Equal(t, []core.Intent{
		core.TogglePause(),
		core.SubmitText("We open the door"),
		core.Stop(),
	}, *got)
}

func TestUIModel_Notices(t *testing.T) {
	m, _ := newTestModel()

	m, _ = update(m, noticeMsg(engine.NewNotice(engine.NoticePaused)))
	assert.True(t, m.paused)
	assert.Contains(t, m.View(), "paused")

	m, _ = update(m, noticeMsg(engine.NewNotice(engine.NoticeResumed)))
	assert.False(t, m.paused)
	assert.Contains(t, m.View(), "running")

	m, cmd := update(m, noticeMsg(engine.NewNotice(engine.NoticeStopped)))
	assert.True(t, m.stopped)
	require.NotNil(t, cmd)
}

func TestTheme_Format(t *testing.T) {
	theme := NewTheme(lipgloss.NewRenderer(io.Discard), "Alice")

	assert.Equal(t, "Alice:\nHello there.", theme.FormatTurn(engine.TurnEvent{DisplayName: "Alice", Reply: " Hello there.\n"}))
	assert.Equal(t, "You: hi", theme.FormatUser("hi"))
	assert.Equal(t, "Conversation resumed.", theme.FormatNotice(engine.NewNotice(engine.NoticeResumed)))
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer

	c := NewConsole(&buf, "Alice", "Bob")
	c.PresentTurn(engine.TurnEvent{DisplayName: "Bob", Reply: "I draw my bow."})
	c.PresentTurn(engine.TurnEvent{DisplayName: "Alice", Reply: "No response from LLM.", Err: core.ErrInference})
	c.PresentNotice(engine.NewNotice(engine.NoticeIdlePrompt))

	assert.Equal(t,
		"\nBob:\nI draw my bow.\n\n"+
			"\nAlice:\nNo response from LLM.\n\n"+
			"Do you want to continue talking? Type a message to continue, or Ctrl+C to stop.\n",
		buf.String())
}

func TestUI_NextAfterExit(t *testing.T) {
	ui := NewUI(func(o *UIOptions) {
		o.Input = bytes.NewReader(nil)
		o.Output = io.Discard
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, ui.Run(ctx))

	_, err := ui.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}
