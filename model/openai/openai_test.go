package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/parley/core"
	"github.com/hupe1980/parley/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ model.Model  = (*Model)(nil)
	_ model.Pinger = (*Model)(nil)
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := openai.NewClient(
		option.WithBaseURL(server.URL+"/"),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)
	return NewModelFromClient(&client)
}

func TestModel_GenerateNonStreaming(t *testing.T) {
	var body map[string]any
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"llama3","choices":[{"index":0,"message":{"role":"assistant","content":"Greetings."},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	})

	resp, err := model.Complete(context.Background(), m, model.Request{
		Model: "llama3",
		Messages: []core.Message{
			core.SystemMessage("be brief"),
			core.NewMessage("Ruby", "Hello"),
			core.AssistantMessage("earlier"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Greetings.", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 5, resp.Usage.TotalTokens)

	assert.Equal(t, "llama3", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	second := msgs[1].(map[string]any)
	assert.Equal(t, "user", second["role"])
	assert.Equal(t, "Ruby: Hello", second["content"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
}

func TestModel_GenerateNoChoices(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"x","choices":[]}`)
	})

	_, err := model.Complete(context.Background(), m, model.Request{Model: "x"})
	assert.EqualError(t, err, "no choices returned")
}

func TestModel_GenerateAPIError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	})

	_, err := model.Complete(context.Background(), m, model.Request{Model: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api error")
}

func TestModel_GenerateStreaming(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"x\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"x\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	resp, err := model.Complete(context.Background(), m, model.Request{Model: "x", Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestModel_Ping(t *testing.T) {
	ok := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[{"id":"llama3","object":"model","created":1,"owned_by":"library"}]}`)
	})
	assert.NoError(t, ok.Ping(context.Background()))

	down := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	assert.ErrorIs(t, down.Ping(context.Background()), core.ErrBackendUnreachable)
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "llama3"
		o.APIKey = "k"
		o.BaseURL = "http://localhost:11434/v1/"
	})
	assert.Equal(t, model.Info{Name: "llama3", Provider: "openai"}, m.Info())
}
