package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markbench/internal/config"
	"markbench/internal/llm"
)

func testConfig() *config.LLMProviderConfig {
	return &config.LLMProviderConfig{
		Provider:     "anthropic",
		APIKey:       "sk-test-key",
		DefaultModel: "claude-3-5-sonnet",
	}
}

func TestComplete(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": "MARK: 85\nFEEDBACK: Well done."},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 120, "output_tokens": 40},
		})
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	comp, err := client.Complete(context.Background(), llm.Request{
		Prompt:       "grade this",
		SystemPrompt: "you are strict",
		Temperature:  0.1,
		MaxTokens:    1500,
	})
	require.NoError(t, err)

	assert.Equal(t, "MARK: 85\nFEEDBACK: Well done.", comp.Content)
	assert.Equal(t, 120, comp.InputTokens)
	assert.Equal(t, 40, comp.OutputTokens)

	assert.Equal(t, "claude-3-5-sonnet", gotBody["model"])
	assert.Equal(t, float64(1500), gotBody["max_tokens"])
	assert.Equal(t, "you are strict", gotBody["system"])
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 1)
	msg := messages[0].(map[string]interface{})
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "grade this", msg["content"])
}

func TestComplete_ModelOverride(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": "ok"}},
			"usage":   map[string]int{"input_tokens": 1, "output_tokens": 1},
		})
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	_, err := client.Complete(context.Background(), llm.Request{Model: "claude-3-5-haiku", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku", gotModel)
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})

	var rle *llm.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "anthropic", rle.Provider)
	assert.Equal(t, float64(30), rle.RetryAfter.Seconds())
}

func TestComplete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	assert.ErrorContains(t, err, "status 500")
}

func TestComplete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"content": []interface{}{}})
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	assert.ErrorContains(t, err, "empty response")
}
