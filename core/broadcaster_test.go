package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBroadcaster_BroadcastToAll(t *testing.T) {
	a, b, c := newTestChannel("a"), newTestChannel("b"), newTestChannel("c")
	bc := NewBroadcaster(a, b, c)

	n := bc.BroadcastToAll(UserMessage("hello"))

	assert.Equal(t, 3, n)
	for _, ch := range []*AgentChannel{a, b, c} {
		assert.Equal(t, []Message{UserMessage("hello")}, ch.Snapshot(), ch.ID())
	}
}

func TestBroadcaster_BroadcastExceptUnknownExcludesNothing(t *testing.T) {
	a, b := newTestChannel("a"), newTestChannel("b")
	bc := NewBroadcaster(a, b)

	assert.Equal(t, 2, bc.BroadcastExcept(UserMessage("x"), "nobody"))
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestBroadcaster_Lookup(t *testing.T) {
	a, b := newTestChannel("a"), newTestChannel("b")
	bc := NewBroadcaster(a, b)

	got, ok := bc.Channel("b")
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok = bc.Channel("z")
	assert.False(t, ok)

	assert.Equal(t, 2, bc.Len())
	assert.Equal(t, []*AgentChannel{a, b}, bc.Channels())
}

// BroadcastExcept leaves the excluded mailbox untouched and appends exactly
// one copy of the message to every other mailbox.
func TestBroadcaster_ExclusionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		k := rapid.IntRange(1, 8).Draw(rt, "agents")
		excluded := rapid.IntRange(0, k-1).Draw(rt, "excluded")

		channels := make([]*AgentChannel, k)
		before := make([][]Message, k)
		for i := range channels {
			channels[i] = newTestChannel(fmt.Sprintf("agent-%d", i))
			prior := rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("prior-%d", i))
			for j := 0; j < prior; j++ {
				channels[i].Enqueue(UserMessage(fmt.Sprintf("prior %d", j)))
			}
			before[i] = channels[i].Snapshot()
		}

		msg := NewMessage("Speaker", rapid.String().Draw(rt, "content"))
		delivered := NewBroadcaster(channels...).BroadcastExcept(msg, channels[excluded].ID())

		if delivered != k-1 {
			rt.Fatalf("delivered %d, want %d", delivered, k-1)
		}

		for i, ch := range channels {
			after := ch.Snapshot()
			if i == excluded {
				if len(after) != len(before[i]) {
					rt.Fatalf("excluded mailbox changed: %v -> %v", before[i], after)
				}
				continue
			}
			if len(after) != len(before[i])+1 || after[len(after)-1] != msg {
				rt.Fatalf("mailbox %d = %v, want %v + %v", i, after, before[i], msg)
			}
		}
	})
}
