package gemini

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
		Provider:     "gemini",
		APIKey:       "test-key",
		DefaultModel: "gemini-1.5-pro",
	}
}

func TestComplete(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]string{{"text": "MARK: 78\nFEEDBACK: Good."}},
					},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 150, "candidatesTokenCount": 35},
		})
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	comp, err := client.Complete(context.Background(), llm.Request{
		Prompt:       "grade this",
		SystemPrompt: "be thorough",
		Temperature:  0.2,
		MaxTokens:    800,
	})
	require.NoError(t, err)

	assert.Equal(t, "MARK: 78\nFEEDBACK: Good.", comp.Content)
	assert.Equal(t, 150, comp.InputTokens)
	assert.Equal(t, 35, comp.OutputTokens)

	genCfg := gotBody["generationConfig"].(map[string]interface{})
	assert.Equal(t, 0.2, genCfg["temperature"])
	assert.Equal(t, float64(800), genCfg["maxOutputTokens"])

	contents := gotBody["contents"].([]interface{})
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]interface{})["parts"].([]interface{})
	assert.Equal(t, "grade this", parts[0].(map[string]interface{})["text"])

	sys := gotBody["systemInstruction"].(map[string]interface{})
	sysParts := sys["parts"].([]interface{})
	assert.Equal(t, "be thorough", sysParts[0].(map[string]interface{})["text"])
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})

	var rle *llm.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "gemini", rle.Provider)
	// Missing Retry-After falls back to the 60s default.
	assert.Equal(t, float64(60), rle.RetryAfter.Seconds())
}

func TestComplete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer server.Close()

	client := NewClientWithEndpoint(testConfig(), server.URL)
	_, err := client.Complete(context.Background(), llm.Request{Prompt: "p"})
	assert.ErrorContains(t, err, "no candidates")
}
