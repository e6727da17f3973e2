package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/parley/core"
)

// Request captures a single inference call for one agent turn.
type Request struct {
	Model    string         `json:"model"`    // Backend model identifier (agent target)
	Messages []core.Message `json:"messages"` // Ordered request context
	Stream   bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	Partial      bool        `json:"partial"`
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "ollama", "openai", "anthropic", "mock"
}

// Model is the inference transport used by the engine.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Pinger is implemented by transports that can verify backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Complete drains Generate into a single final response. Partial chunks are
// concatenated when no final chunk carries content.
func Complete(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   *Response
		partial strings.Builder
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if r.Partial {
				partial.WriteString(r.Content)
				continue
			}
			rc := r
			final = &rc
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if final == nil {
		if partial.Len() == 0 {
			return Response{}, core.ErrEmptyResponse
		}
		return Response{Content: partial.String(), FinishReason: "stop"}, nil
	}

	if final.Content == "" && partial.Len() > 0 {
		final.Content = partial.String()
	}

	return *final, nil
}

// WireRole maps a conversation message onto the three roles chat backends
// understand. Messages authored by other agents are sent as user messages
// prefixed with the speaker's name.
func WireRole(m core.Message) (role, content string) {
	if m.IsWellKnownRole() {
		return m.Role, m.Content
	}

	return core.RoleUser, fmt.Sprintf("%s: %s", m.Role, m.Content)
}

// MockModel is a lightweight in‑memory Model useful for tests & examples.
// It records every request and answers from a script, falling back to a
// canned reply naming the requested model.
type MockModel struct {
	info Info

	mu       sync.Mutex
	requests []Request
	replies  map[string][]string
	errs     map[string][]error
	pingErr  error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:    Info{Name: name, Provider: "mock"},
		replies: make(map[string][]string),
		errs:    make(map[string][]error),
	}
}

// AddReply queues a reply for requests targeting modelName.
func (m *MockModel) AddReply(modelName, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[modelName] = append(m.replies[modelName], reply)
}

// AddError queues a failure for the next request targeting modelName.
func (m *MockModel) AddError(modelName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[modelName] = append(m.errs[modelName], err)
}

// SetPingError makes Ping fail with err.
func (m *MockModel) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of Generate calls.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	msgs := make([]core.Message, len(req.Messages))
	copy(msgs, req.Messages)
	req.Messages = msgs
	m.requests = append(m.requests, req)

	var (
		reply string
		err   error
	)
	if q := m.errs[req.Model]; len(q) > 0 {
		err, m.errs[req.Model] = q[0], q[1:]
	} else if q := m.replies[req.Model]; len(q) > 0 {
		reply, m.replies[req.Model] = q[0], q[1:]
	} else {
		reply = fmt.Sprintf("Mock reply %d from %s", len(m.requests), req.Model)
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if ctx.Err() != nil {
			errCh <- ctx.Err()
			return
		}
		if err != nil {
			errCh <- err
			return
		}
		respCh <- Response{Content: reply, FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Ping implements Pinger.
func (m *MockModel) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
