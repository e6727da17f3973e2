package core

// Broadcaster fans a message out to the configured agent channels. Apart
// from seeding it is the only path that writes into mailboxes.
type Broadcaster struct {
	channels []*AgentChannel
	byID     map[string]*AgentChannel
}

// NewBroadcaster creates a broadcaster over channels in configured order.
func NewBroadcaster(channels ...*AgentChannel) *Broadcaster {
	byID := make(map[string]*AgentChannel, len(channels))
	for _, ch := range channels {
		byID[ch.ID()] = ch
	}

	return &Broadcaster{channels: channels, byID: byID}
}

// BroadcastToAll enqueues msg into every channel and returns the number of deliveries.
func (b *Broadcaster) BroadcastToAll(msg Message) int {
	for _, ch := range b.channels {
		ch.Enqueue(msg)
	}

	return len(b.channels)
}

// BroadcastExcept enqueues msg into every channel except excludedID. An
// unknown excludedID excludes nothing.
func (b *Broadcaster) BroadcastExcept(msg Message, excludedID string) int {
	delivered := 0

	for _, ch := range b.channels {
		if ch.ID() == excludedID {
			continue
		}

		ch.Enqueue(msg)
		delivered++
	}

	return delivered
}

// Channels returns the channels in configured order.
func (b *Broadcaster) Channels() []*AgentChannel {
	out := make([]*AgentChannel, len(b.channels))
	copy(out, b.channels)

	return out
}

// Channel looks up a channel by agent id.
func (b *Broadcaster) Channel(id string) (*AgentChannel, bool) {
	ch, ok := b.byID[id]
	return ch, ok
}

// Len returns the number of channels.
func (b *Broadcaster) Len() int { return len(b.channels) }
