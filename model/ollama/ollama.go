// Package ollama provides an implementation of model.Model on top of the
// native Ollama chat API (POST /api/chat, streaming disabled) together with a
// liveness probe against the server root.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/model"
)

// DefaultBaseURL is the address of a local Ollama server.
const DefaultBaseURL = "http://localhost:11434"

// Options configure the Ollama model adapter.
type Options struct {
	BaseURL string
	// Model is used when a request does not name a target.
	Model string
	// Timeout bounds each HTTP call made by the default client.
	Timeout time.Duration
	// HTTPClient overrides the default client (Timeout is then ignored).
	HTTPClient *http.Client
	// Temperature is passed through as a model option when non-zero.
	Temperature float64
}

// Model talks to an Ollama server.
type Model struct {
	baseURL    string
	httpClient *http.Client
	opts       Options
}

// NewModel creates a new Ollama model adapter.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		BaseURL: DefaultBaseURL,
		Timeout: 15 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Model{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: client,
		opts:       opts,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Stream   bool           `json:"stream"`
	Messages []chatMessage  `json:"messages"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error,omitempty"`
}

// Generate implements model.Model with a single non-streaming request.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := m.chat(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		out <- resp
	}()

	return out, errCh
}

func (m *Model) chat(ctx context.Context, req model.Request) (model.Response, error) {
	target := req.Model
	if target == "" {
		target = m.opts.Model
	}

	body := chatRequest{
		Model:    target,
		Stream:   false,
		Messages: make([]chatMessage, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		role, content := model.WireRole(msg)
		body.Messages = append(body.Messages, chatMessage{Role: role, Content: content})
	}
	if m.opts.Temperature != 0 {
		body.Options = map[string]any{"temperature": m.opts.Temperature}
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/chat", bytes.NewReader(buf))
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return model.Response{}, fmt.Errorf("ollama request failed on /api/chat: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		if err := json.Unmarshal(payload, &parsed); err == nil && parsed.Error != "" {
			return model.Response{}, fmt.Errorf("ollama http %d: %s", resp.StatusCode, parsed.Error)
		}
		return model.Response{}, fmt.Errorf("ollama http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if err := json.Unmarshal(payload, &parsed); err != nil {
		return model.Response{}, fmt.Errorf("ollama returned non-json payload: %w", err)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return model.Response{}, core.ErrEmptyResponse
	}

	finish := parsed.DoneReason
	if finish == "" {
		finish = "stop"
	}

	return model.Response{
		Content:      content,
		FinishReason: finish,
		Usage: &model.TokenUsage{
			PromptTokens:     parsed.PromptEvalCount,
			CompletionTokens: parsed.EvalCount,
			TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
		},
	}, nil
}

// Ping checks that the server root answers 200 OK.
func (m *Model) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrBackendUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", core.ErrBackendUnreachable, resp.StatusCode)
	}

	return nil
}

// Info returns metadata describing this Ollama model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "ollama"}
}
