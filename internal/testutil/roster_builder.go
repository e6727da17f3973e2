package testutil

import (
	"fmt"

	"github.com/hupe1980/parley/core"
)

// RosterBuilder helps construct agent channels with fluent chaining for tests.
// Example:
//
//	b := NewRosterBuilder(control).Agent("a", "Alice").Agent("b", "Bob").Broadcaster()
type RosterBuilder struct {
	control      *core.ControlState
	historyLimit int
	specs        []core.AgentSpec
}

// NewRosterBuilder creates a builder whose channels report activity to control.
// A nil control disables activity tracking.
func NewRosterBuilder(control *core.ControlState) *RosterBuilder {
	return &RosterBuilder{control: control}
}

// Agent appends an agent whose target model equals its id (chainable).
func (b *RosterBuilder) Agent(id, name string) *RosterBuilder {
	b.specs = append(b.specs, core.AgentSpec{
		ID:          id,
		DisplayName: name,
		Target:      id,
		Persona:     fmt.Sprintf("You are %s.", name),
	})

	return b
}

// Agents appends n agents named agent-1..agent-n (chainable).
func (b *RosterBuilder) Agents(n int) *RosterBuilder {
	for i := 1; i <= n; i++ {
		b.Agent(fmt.Sprintf("agent-%d", i), fmt.Sprintf("Agent%d", i))
	}

	return b
}

// HistoryLimit sets the history bound of every channel (chainable).
func (b *RosterBuilder) HistoryLimit(n int) *RosterBuilder {
	b.historyLimit = n
	return b
}

// Channels builds the channels in the order agents were added.
func (b *RosterBuilder) Channels() []*core.AgentChannel {
	channels := make([]*core.AgentChannel, 0, len(b.specs))

	for _, spec := range b.specs {
		channels = append(channels, core.NewAgentChannel(spec, func(o *core.ChannelOptions) {
			if b.control != nil {
				o.Activity = b.control
			}
			o.HistoryLimit = b.historyLimit
		}))
	}

	return channels
}

// Broadcaster builds the channels and wraps them in a broadcaster.
func (b *RosterBuilder) Broadcaster() *core.Broadcaster {
	return core.NewBroadcaster(b.Channels()...)
}
