// Package grok_test tests the xAI client against stub HTTP servers.
package grok_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdmsharpe/discord-grok/internal/config"
	"github.com/jdmsharpe/discord-grok/internal/conversation"
	"github.com/jdmsharpe/discord-grok/internal/grok"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string, maxRetries int) grok.Client {
	t.Helper()
	client, err := grok.NewClient(config.XAIConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		MaxRetries:        maxRetries,
		RetryDelaySeconds: 0,
		RequestTimeout:    5 * time.Second,
		VideoPollInterval: 10 * time.Millisecond,
	}, testLogger())
	require.NoError(t, err)
	return client
}

func chatCompletionBody(content, reasoning string) string {
	return `{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` +
		mustJSON(content) + `,"reasoning_content":` + mustJSON(reasoning) + `},"finish_reason":"stop"}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := grok.NewClient(config.XAIConfig{BaseURL: "https://api.x.ai/v1"}, testLogger())
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	t.Parallel()

	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
		Tools []struct {
			Type string `json:"type"`
		} `json:"tools"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody("the answer", "the reasoning")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)

	completion, err := client.Complete(context.Background(), grok.CompletionRequest{
		Params: conversation.Params{
			ID:           "c1",
			Model:        "grok-3",
			SystemPrompt: "be brief",
			Tools:        []conversation.Tool{conversation.ToolWebSearch, conversation.ToolXSearch},
		},
		History: []conversation.Entry{
			{Role: conversation.RoleUser, Text: "earlier question"},
			{Role: conversation.RoleAssistant, Text: "earlier answer"},
		},
		Input: conversation.Entry{Text: "new question"},
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", completion.Content)
	assert.Equal(t, "the reasoning", completion.ReasoningContent)

	assert.Equal(t, "grok-3", captured.Model)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "user", captured.Messages[3].Role)

	require.Len(t, captured.Tools, 2)
	assert.Equal(t, "web_search", captured.Tools[0].Type)
	assert.Equal(t, "x_search", captured.Tools[1].Type)
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(chatCompletionBody("recovered", "")))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	completion, err := client.Complete(context.Background(), grok.CompletionRequest{
		Params: conversation.Params{Model: "grok-3"},
		Input:  conversation.Entry{Text: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", completion.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad prompt","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3)

	_, err := client.Complete(context.Background(), grok.CompletionRequest{
		Params: conversation.Params{Model: "grok-3"},
		Input:  conversation.Entry{Text: "hi"},
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	formatted := grok.FormatAPIError(err)
	assert.Contains(t, formatted, "bad prompt")
	assert.Contains(t, formatted, "Status: 400")
	assert.Contains(t, formatted, "invalid_request_error")
}

func TestCompleteGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2)

	_, err := client.Complete(context.Background(), grok.CompletionRequest{
		Params: conversation.Params{Model: "grok-3"},
		Input:  conversation.Entry{Text: "hi"},
	})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFormatAPIErrorPlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", grok.FormatAPIError(nil))
	assert.Equal(t, "context deadline exceeded", grok.FormatAPIError(context.DeadlineExceeded))
}
