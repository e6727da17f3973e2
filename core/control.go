package core

import (
	"sync"
	"time"
)

// ControlOptions configures a ControlState.
type ControlOptions struct {
	// Now returns the current time. Defaults to time.Now; tests inject a fake clock.
	Now func() time.Time
}

// ControlState is the single source of truth shared by the conversation
// engine and the input dispatcher. All fields are guarded by one mutex.
//
// Every mutation closes the channel returned by Changed and installs a fresh
// one, so waiters can block on a notification instead of busy-polling.
// The state only ever carries flags and timestamps, never error payloads.
type ControlState struct {
	mu            sync.Mutex
	now           func() time.Time
	stopRequested bool
	paused        bool
	pending       bool
	lastActivity  time.Time
	changed       chan struct{}
	done          chan struct{}
}

// NewControlState creates a ControlState with lastActivity set to now.
func NewControlState(optFns ...func(o *ControlOptions)) *ControlState {
	opts := ControlOptions{Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ControlState{
		now:          opts.Now,
		lastActivity: opts.Now(),
		changed:      make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// notifyLocked wakes every waiter on Changed; caller must hold mu.
func (c *ControlState) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Changed returns a channel that is closed on the next state mutation.
func (c *ControlState) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.changed
}

// Done returns a channel that is closed once a stop has been requested.
func (c *ControlState) Done() <-chan struct{} { return c.done }

// RequestStop sets stopRequested. Calling it more than once is harmless.
func (c *ControlState) RequestStop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopRequested {
		return
	}

	c.stopRequested = true
	close(c.done)
	c.notifyLocked()
}

// StopRequested reports whether a stop has been requested.
func (c *ControlState) StopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stopRequested
}

// TogglePause flips the paused flag and returns the new value.
func (c *ControlState) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = !c.paused
	c.notifyLocked()

	return c.paused
}

// SetPaused sets the paused flag explicitly.
func (c *ControlState) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused == paused {
		return
	}

	c.paused = paused
	c.notifyLocked()
}

// Paused reports whether the conversation is paused.
func (c *ControlState) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.paused
}

// MarkActivity records a successful enqueue: pending becomes true and the
// last activity timestamp moves to now.
func (c *ControlState) MarkActivity() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = true
	c.lastActivity = c.now()
	c.notifyLocked()
}

// MarkPending sets pending without touching the last activity timestamp.
// Requeued messages use it: they still need a round but are not user or
// agent activity for the idle timeout.
func (c *ControlState) MarkPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = true
	c.notifyLocked()
}

// Pending reports whether a mailbox gained messages since the last ClearPending.
func (c *ControlState) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pending
}

// ClearPending resets the pending flag. The engine calls it at the start of
// every round, before any mailbox is drained.
func (c *ControlState) ClearPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = false
}

// LastActivity returns the time of the most recent enqueue (or creation).
func (c *ControlState) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastActivity
}

// IdleFor returns how long it has been since the last activity.
func (c *ControlState) IdleFor() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now().Sub(c.lastActivity)
}

// Snapshot is a point-in-time copy of the control flags.
type Snapshot struct {
	StopRequested bool
	Paused        bool
	Pending       bool
	LastActivity  time.Time
}

// Snapshot returns a consistent copy of every flag.
func (c *ControlState) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		StopRequested: c.stopRequested,
		Paused:        c.paused,
		Pending:       c.pending,
		LastActivity:  c.lastActivity,
	}
}
