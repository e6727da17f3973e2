package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/input"
	"github.com/hupe1980/parley/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(3).Broadcaster()
	d := New(input.NewScripted(nil), b, control)

	assert.Equal(t, 3, d.Dispatch(core.SubmitText("  We enter the cave.  ")))
	for _, ch := range b.Channels() {
		assert.Equal(t, []core.Message{core.UserMessage("We enter the cave.")}, ch.Snapshot())
	}
	assert.True(t, control.Pending())

	assert.Equal(t, 0, d.Dispatch(core.SubmitText("   ")))
	assert.Equal(t, 0, d.Dispatch(core.None()))
	for _, ch := range b.Channels() {
		assert.Equal(t, 1, ch.Len())
	}

	d.Dispatch(core.TogglePause())
	assert.True(t, control.Paused())
	d.Dispatch(core.TogglePause())
	assert.False(t, control.Paused())

	d.Dispatch(core.Stop())
	assert.True(t, control.StopRequested())
}

func TestDispatch_OnSubmit(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(2).Broadcaster()

	var got []core.Message

	d := New(nil, b, control, func(o *Options) {
		o.OnSubmit = func(msg core.Message, deliveries int) {
			assert.Equal(t, 2, deliveries)
			got = append(got, msg)
		}
	})

	d.Dispatch(core.SubmitText(" Hello "))
	d.Dispatch(core.SubmitText(" "))
	d.Dispatch(core.TogglePause())

	assert.Equal(t, []core.Message{core.UserMessage("Hello")}, got)
}

func TestRun_ScriptedUntilStop(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(2).Broadcaster()
	src := input.NewScripted([]core.Intent{
		core.SubmitText("What is your name?"),
		core.TogglePause(),
		core.Stop(),
		core.SubmitText("never delivered"),
	})

	require.NoError(t, New(src, b, control).Run(context.Background()))

	assert.True(t, control.StopRequested())
	assert.True(t, control.Paused())
	assert.Equal(t, 1, src.Remaining())
	for _, ch := range b.Channels() {
		assert.Equal(t, 1, ch.Len())
	}
}

func TestRun_SourceExhaustedKeepsConversation(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(2).Broadcaster()

	require.NoError(t, New(input.NewScripted([]core.Intent{core.SubmitText("hi")}), b, control).Run(context.Background()))
	assert.False(t, control.StopRequested())
}

func TestRun_ContextCancelRequestsStop(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(1).Broadcaster()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(input.NewChannel(0), b, control).Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not return")
	}
	assert.True(t, control.StopRequested())
}

func TestRun_ExitsWhenEngineStops(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(1).Broadcaster()

	done := make(chan error, 1)
	go func() { done <- New(input.NewChannel(0), b, control).Run(context.Background()) }()

	control.RequestStop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not return")
	}
}

type brokenSource struct{}

func (brokenSource) Next(context.Context) (core.Intent, error) {
	return core.None(), errors.New("tty gone")
}

func TestRun_SourceError(t *testing.T) {
	control := core.NewControlState()
	b := testutil.NewRosterBuilder(control).Agents(1).Broadcaster()

	err := New(brokenSource{}, b, control).Run(context.Background())
	assert.EqualError(t, err, "read input: tty gone")
	assert.False(t, control.StopRequested())
}
