package core

import "sync"

// AgentSpec is the static identity of one configured agent.
type AgentSpec struct {
	// ID is the stable key used for exclusion and lookup.
	ID string
	// DisplayName is the name other agents see as the role of this agent's replies.
	DisplayName string
	// Target is the opaque backend model identifier used for inference.
	Target string
	// Persona is the agent specific system-prompt text.
	Persona string
}

// ActivityRecorder is notified whenever a mailbox gains messages.
// *ControlState implements it.
type ActivityRecorder interface {
	// MarkActivity is called on Enqueue.
	MarkActivity()
	// MarkPending is called on Requeue: the messages are not new, so the
	// idle clock must not move.
	MarkPending()
}

// ChannelOptions configures an AgentChannel.
type ChannelOptions struct {
	// Activity is notified on every Enqueue and Requeue. Nil disables notification.
	Activity ActivityRecorder
	// HistoryLimit bounds the number of committed messages retained as
	// context for future turns. The seed message is always kept. 0 means unbounded.
	HistoryLimit int
}

// AgentChannel couples an agent identity with its private mailbox and the
// conversation history already committed for it.
//
// Mailbox contract:
//   - Enqueue appends in arrival order and never fails
//   - DrainAll returns everything queued so far and empties the mailbox in
//     one critical section, so a concurrent Enqueue lands either in the
//     returned slice or in the mailbox afterwards, never both and never lost
//   - Seed installs the system message at the head exactly once
//
// The mailbox of each channel has its own mutex; no lock spans channels.
type AgentChannel struct {
	spec         AgentSpec
	activity     ActivityRecorder
	historyLimit int

	mu      sync.Mutex
	mailbox []Message
	history []Message
	seeded  bool
}

// NewAgentChannel creates an empty channel for the given agent.
func NewAgentChannel(spec AgentSpec, optFns ...func(o *ChannelOptions)) *AgentChannel {
	opts := ChannelOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &AgentChannel{
		spec:         spec,
		activity:     opts.Activity,
		historyLimit: opts.HistoryLimit,
	}
}

// ID returns the stable agent key.
func (c *AgentChannel) ID() string { return c.spec.ID }

// DisplayName returns the agent's display name.
func (c *AgentChannel) DisplayName() string { return c.spec.DisplayName }

// Target returns the backend model identifier.
func (c *AgentChannel) Target() string { return c.spec.Target }

// Persona returns the persona text.
func (c *AgentChannel) Persona() string { return c.spec.Persona }

// Spec returns a copy of the agent identity.
func (c *AgentChannel) Spec() AgentSpec { return c.spec }

// Enqueue appends msg to the mailbox and records activity.
func (c *AgentChannel) Enqueue(msg Message) {
	c.mu.Lock()
	c.mailbox = append(c.mailbox, msg)
	c.mu.Unlock()

	if c.activity != nil {
		c.activity.MarkActivity()
	}
}

// DrainAll returns every queued message in arrival order and empties the mailbox.
func (c *AgentChannel) DrainAll() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	drained := c.mailbox
	c.mailbox = nil

	return drained
}

// Seed installs the system message ahead of anything already queued. It is
// meant to run once during engine initialization and does not count as activity.
func (c *AgentChannel) Seed(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seeded {
		return ErrAlreadySeeded
	}

	c.seeded = true
	c.mailbox = append([]Message{msg}, c.mailbox...)

	return nil
}

// Seeded reports whether Seed has been called.
func (c *AgentChannel) Seeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.seeded
}

// Requeue puts previously drained messages back at the head of the mailbox,
// ahead of anything that arrived since the drain. Used when a turn fails.
// The mailbox is non-empty again, so the channel reports pending work
// without refreshing the last activity time.
func (c *AgentChannel) Requeue(msgs []Message) {
	if len(msgs) == 0 {
		return
	}

	c.mu.Lock()
	restored := make([]Message, 0, len(msgs)+len(c.mailbox))
	restored = append(restored, msgs...)
	restored = append(restored, c.mailbox...)
	c.mailbox = restored
	c.mu.Unlock()

	if c.activity != nil {
		c.activity.MarkPending()
	}
}

// Len returns the number of queued messages.
func (c *AgentChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.mailbox)
}

// Snapshot returns a copy of the queued messages without draining them.
func (c *AgentChannel) Snapshot() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.mailbox))
	copy(out, c.mailbox)

	return out
}

// Context returns the request context for a turn: committed history
// followed by the freshly drained messages.
func (c *AgentChannel) Context(drained []Message) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, 0, len(c.history)+len(drained))
	out = append(out, c.history...)
	out = append(out, drained...)

	return out
}

// Commit records a completed turn: the drained messages followed by the
// agent's own reply become part of the history used for later turns.
func (c *AgentChannel) Commit(drained []Message, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, drained...)
	c.history = append(c.history, AssistantMessage(reply))
	c.trimHistoryLocked()
}

// History returns a copy of the committed history.
func (c *AgentChannel) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Message, len(c.history))
	copy(out, c.history)

	return out
}

// trimHistoryLocked drops the oldest non-seed messages beyond historyLimit.
func (c *AgentChannel) trimHistoryLocked() {
	if c.historyLimit <= 0 || len(c.history) <= c.historyLimit {
		return
	}

	if len(c.history) > 0 && c.history[0].Role == RoleSystem {
		keep := c.historyLimit - 1
		if keep < 0 {
			keep = 0
		}

		tail := c.history[len(c.history)-keep:]
		trimmed := make([]Message, 0, keep+1)
		trimmed = append(trimmed, c.history[0])
		trimmed = append(trimmed, tail...)
		c.history = trimmed

		return
	}

	c.history = append([]Message(nil), c.history[len(c.history)-c.historyLimit:]...)
}
