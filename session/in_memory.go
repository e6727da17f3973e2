package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/engine"
	"gopkg.in/yaml.v3"
)

// Entry is one line of a transcript.
type Entry struct {
	Round   int       `yaml:"round"`
	Speaker string    `yaml:"speaker"`
	Content string    `yaml:"content"`
	Failed  bool      `yaml:"failed,omitempty"`
	At      time.Time `yaml:"at"`
}

// Transcript is the ordered record of one run.
type Transcript struct {
	RunID   string  `yaml:"run_id"`
	Entries []Entry `yaml:"entries"`
}

// Clone returns a deep copy.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{RunID: t.RunID, Entries: append([]Entry(nil), t.Entries...)}
}

// InMemoryStore is a volatile transcript store keyed by run id. It is safe
// for concurrent access; returned transcripts are clones.
type InMemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string]*Transcript
	now         func() time.Time
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transcripts: make(map[string]*Transcript), now: time.Now}
}

// Get returns a clone of the transcript of runID.
func (s *InMemoryStore) Get(runID string) (*Transcript, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[runID]
	if !ok {
		return nil, false
	}

	return t.Clone(), true
}

// Append adds an entry to the transcript of runID, creating it if needed.
// A zero At is stamped with the current time.
func (s *InMemoryStore) Append(runID string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.At.IsZero() {
		e.At = s.now()
	}

	t, ok := s.transcripts[runID]
	if !ok {
		t = &Transcript{RunID: runID}
		s.transcripts[runID] = t
	}

	t.Entries = append(t.Entries, e)
}

// RecordUser appends a user message.
func (s *InMemoryStore) RecordUser(runID string, round int, msg core.Message) {
	s.Append(runID, Entry{Round: round, Speaker: "You", Content: msg.Content})
}

// Register records every finished turn of the engine owning cm.
func (s *InMemoryStore) Register(cm *engine.CallbackManager) {
	cm.RegisterCallback(engine.NewFunctionCallback(engine.CallbackAfterTurn, func(_ context.Context, cbCtx *engine.CallbackContext) error {
		if cbCtx.Turn == nil {
			return nil
		}

		s.Append(cbCtx.RunID, Entry{
			Round:   cbCtx.Turn.Round,
			Speaker: cbCtx.Turn.DisplayName,
			Content: cbCtx.Turn.Reply,
			Failed:  cbCtx.Turn.Failed(),
		})

		return nil
	}))
}

// WriteYAML encodes the transcript of runID to w.
func (s *InMemoryStore) WriteYAML(w io.Writer, runID string) error {
	t, ok := s.Get(runID)
	if !ok {
		return fmt.Errorf("%w: no transcript for run %s", ErrNotFound, runID)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	return enc.Close()
}
