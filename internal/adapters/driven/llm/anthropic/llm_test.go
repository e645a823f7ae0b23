package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragvault/internal/core/domain"
	"github.com/custodia-labs/ragvault/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := NewLLMService(Config{APIKey: "k", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestBuildRequest(t *testing.T) {
	req := buildRequest("m", []driven.ChatMessage{
		{Role: "system", Content: "be grounded"},
		{Role: "user", Content: "context"},
		{Role: "system", Content: "cite sources"},
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	}, driven.ChatOptions{Temperature: 0.1})

	assert.Equal(t, "be grounded\n\ncite sources", req.System)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	assert.Equal(t, []turn{
		{Role: "user", Content: "context\n\nquestion"},
		{Role: "assistant", Content: "answer"},
	}, req.Messages)
}

func TestChat(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be grounded", req.System)
		require.Len(t, req.Messages, 1)

		w.Header().Set("request-id", "req_123")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"content": [{"type": "text", "text": "Refunds take "}, {"type": "tool_use"}, {"type": "text", "text": "5 days."}],
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	})

	resp, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "be grounded"},
		{Role: "user", Content: "how long?"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Refunds take 5 days.", resp.Content)
	assert.Equal(t, "req_123", resp.RequestID)
	assert.Equal(t, 14, resp.TotalTokens)
}

func TestChat_FallsBackToMessageID(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "msg_9", "content": [{"type": "text", "text": "ok"}]}`))
	})

	resp, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "msg_9", resp.RequestID)
}

func TestChat_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "bad key"}}`))
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "authentication_error: bad key")
}

func TestChat_PlainErrorBody(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream connect error", http.StatusBadGateway)
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: "user", Content: "hi"}}, driven.ChatOptions{})

	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "upstream connect error")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
}
