package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight-backend/internal/agent"
	"github.com/finsight/finsight-backend/internal/config"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newModelServer(t *testing.T, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": content}},
			},
		})
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.GroqConfig{
		APIKey:       "test-key",
		BaseURL:      baseURL,
		Model:        "llama3-70b-8192",
		SummaryModel: "llama-3.1-8b-instant",
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(config.GroqConfig{})
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	var captured capturedRequest
	server := newModelServer(t, "Thought: easy question.\nAnswer: yes", &captured)
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.Complete(context.Background(), []agent.Message{
		{Role: "system", Content: "You are an analyst."},
		{Role: "user", Content: "Is VCB a bank?"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Thought: easy question.\nAnswer: yes", got)
	assert.Equal(t, "llama3-70b-8192", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "Is VCB a bank?", captured.Messages[1].Content)
}

func TestSummarize(t *testing.T) {
	var captured capturedRequest
	server := newModelServer(t, "  The user asked about bank stocks.  ", &captured)
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.Summarize(context.Background(), "User: tell me about bank stocks")
	require.NoError(t, err)

	assert.Equal(t, "The user asked about bank stocks.", got, "summary whitespace is trimmed")
	assert.Equal(t, "llama-3.1-8b-instant", captured.Model)
	assert.Equal(t, 200, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Contains(t, captured.Messages[1].Content, "Briefly summarize the following conversation:")
}

func TestSummarizeEmptyInput(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	got, err := client.Summarize(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got, "empty input never reaches the model")
}

func TestCompleteTransportError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.Complete(context.Background(), []agent.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model completion failed")
}
