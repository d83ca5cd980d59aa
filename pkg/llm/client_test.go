package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewOpenAIClient(&Config{Endpoint: server.URL, APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	var gotModel string
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, _ = body["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"1. Draft"}}],"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12}}`))
	})

	text, err := client.GenerateText(context.Background(), "gpt-4o", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "1. Draft", text)
	assert.Equal(t, "gpt-4o", gotModel)
}

func TestOpenAIClient_GenerateText_ModelNotFound(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"The model gpt-9 does not exist","type":"invalid_request_error","code":"model_not_found"}}`))
	})

	_, err := client.GenerateText(context.Background(), "gpt-9", "prompt")

	require.Error(t, err)
	assert.Equal(t, ErrorTypeModel, GetErrorType(err))
	assert.False(t, IsRetryable(err))

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "gpt-9", llmErr.Model)
}

func TestOpenAIClient_GenerateText_RateLimited(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	})

	_, err := client.GenerateText(context.Background(), "gpt-4o", "prompt")

	require.Error(t, err)
	assert.Equal(t, ErrorTypeQuota, GetErrorType(err))
	assert.True(t, IsRetryable(err))
}

func TestOpenAIClient_ListModels(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"gpt-4o-mini","object":"model"}]}`))
	})

	models, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(&Config{}, zap.NewNop())
	assert.Error(t, err)
}
