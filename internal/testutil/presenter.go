package testutil

import (
	"sync"
	"time"

	"github.com/hupe1980/parley/engine"
)

// RecordingPresenter stores everything the engine presents. Safe for
// concurrent use; tests read it while the engine goroutine writes.
type RecordingPresenter struct {
	mu      sync.Mutex
	turns   []engine.TurnEvent
	notices []engine.Notice

	// OnTurn, if set, is called synchronously for every turn (e.g. to
	// inject a pause or a stop at a precise point).
	OnTurn func(engine.TurnEvent)
}

// PresentTurn implements engine.Presenter.
func (p *RecordingPresenter) PresentTurn(ev engine.TurnEvent) {
	p.mu.Lock()
	p.turns = append(p.turns, ev)
	hook := p.OnTurn
	p.mu.Unlock()

	if hook != nil {
		hook(ev)
	}
}

// PresentNotice implements engine.Presenter.
func (p *RecordingPresenter) PresentNotice(n engine.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, n)
}

// Turns returns a copy of the recorded turns.
func (p *RecordingPresenter) Turns() []engine.TurnEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.TurnEvent(nil), p.turns...)
}

// AgentOrder returns the agent ids of the recorded turns in order.
func (p *RecordingPresenter) AgentOrder() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, 0, len(p.turns))
	for _, t := range p.turns {
		ids = append(ids, t.AgentID)
	}

	return ids
}

// Notices returns a copy of the recorded notices.
func (p *RecordingPresenter) Notices() []engine.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]engine.Notice(nil), p.notices...)
}

// NoticeCount returns how many notices of kind k were recorded.
func (p *RecordingPresenter) NoticeCount(k engine.NoticeKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, notice := range p.notices {
		if notice.Kind == k {
			n++
		}
	}

	return n
}

// FakeClock is a manually advanced clock for core.ControlOptions.Now.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock starting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
