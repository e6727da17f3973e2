package session

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInMemoryStore_AppendAndGet(t *testing.T) {
	s := NewInMemoryStore()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	_, ok := s.Get("run-1")
	assert.False(t, ok)

	s.RecordUser("run-1", 0, core.UserMessage("Hello"))
	s.Append("run-1", Entry{Round: 1, Speaker: "Jasper", Content: "Hi"})

	tr, ok := s.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, "run-1", tr.RunID)
	assert.Equal(t, []Entry{
		{Round: 0, Speaker: "You", Content: "Hello", At: at},
		{Round: 1, Speaker: "Jasper", Content: "Hi", At: at},
	}, tr.Entries)

	tr.Entries[0].Content = "mutated"

	again, _ := s.Get("run-1")
	assert.Equal(t, "Hello", again.Entries[0].Content)
}

func TestInMemoryStore_RecordsTurns(t *testing.T) {
	s := NewInMemoryStore()
	cm := engine.NewCallbackManager()
	s.Register(cm)

	turn := &engine.TurnEvent{Round: 2, AgentID: "ruby", DisplayName: "Ruby", Reply: "No response from LLM.", Err: core.ErrInference}
	require.NoError(t, cm.ExecuteCallbacks(context.Background(), engine.CallbackAfterTurn, &engine.CallbackContext{
		RunID:   "run-2",
		AgentID: "ruby",
		Turn:    turn,
	}))

	tr, ok := s.Get("run-2")
	require.True(t, ok)
	require.Len(t, tr.Entries, 1)
	assert.Equal(t, "Ruby", tr.Entries[0].Speaker)
	assert.True(t, tr.Entries[0].Failed)
	assert.Equal(t, 2, tr.Entries[0].Round)
}

func TestInMemoryStore_WriteYAML(t *testing.T) {
	s := NewInMemoryStore()
	s.Append("run-3", Entry{Round: 1, Speaker: "Garnet", Content: "Onwards!"})

	var buf bytes.Buffer
	require.NoError(t, s.WriteYAML(&buf, "run-3"))

	var decoded Transcript
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-3", decoded.RunID)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, "Onwards!", decoded.Entries[0].Content)
	assert.NotContains(t, buf.String(), "failed")

	err := s.WriteYAML(&buf, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
