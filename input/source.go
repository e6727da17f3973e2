// Package input provides sources of user intents for the dispatcher.
//
// A Source decodes raw user interaction (keys, lines, a script) into
// core.Intent values. The dispatcher pulls from exactly one source.
package input

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/parley/core"
)

// Source produces user intents. Next blocks until an intent is available,
// ctx is done (returning ctx.Err()) or the source is exhausted (io.EOF).
type Source interface {
	Next(ctx context.Context) (core.Intent, error)
}

// ScriptedOptions configures a Scripted source.
type ScriptedOptions struct {
	// InitialDelay is waited before the first intent.
	InitialDelay time.Duration
	// Delay is waited before every following intent.
	Delay time.Duration
}

// Scripted replays a fixed list of intents, then reports io.EOF.
type Scripted struct {
	opts ScriptedOptions

	mu      sync.Mutex
	intents []core.Intent
	served  int
}

// NewScripted creates a source replaying intents in order.
func NewScripted(intents []core.Intent, optFns ...func(o *ScriptedOptions)) *Scripted {
	opts := ScriptedOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Scripted{opts: opts, intents: append([]core.Intent(nil), intents...)}
}

// Next implements Source.
func (s *Scripted) Next(ctx context.Context) (core.Intent, error) {
	s.mu.Lock()
	if s.served >= len(s.intents) {
		s.mu.Unlock()
		return core.None(), io.EOF
	}

	delay := s.opts.Delay
	if s.served == 0 {
		delay = s.opts.InitialDelay
	}
	s.mu.Unlock()

	if err := sleep(ctx, delay); err != nil {
		return core.None(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	intent := s.intents[s.served]
	s.served++

	return intent, nil
}

// Remaining returns the number of intents not yet served.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.intents) - s.served
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Channel is a source fed through Send. Close ends it with io.EOF once
// every sent intent was consumed.
type Channel struct {
	ch        chan core.Intent
	closeOnce sync.Once
}

// NewChannel creates a channel source with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{ch: make(chan core.Intent, buffer)}
}

// Send delivers an intent, blocking while the buffer is full or until ctx is done.
func (c *Channel) Send(ctx context.Context, intent core.Intent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.ch <- intent:
		return nil
	}
}

// Close ends the source. Send must not be called afterwards.
func (c *Channel) Close() {
	c.closeOnce.Do(func() { close(c.ch) })
}

// Next implements Source.
func (c *Channel) Next(ctx context.Context) (core.Intent, error) {
	select {
	case <-ctx.Done():
		return core.None(), ctx.Err()
	case intent, ok := <-c.ch:
		if !ok {
			return core.None(), io.EOF
		}

		return intent, nil
	}
}
