package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(server *httptest.Server) *Client {
	return &Client{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "anthropic/claude-3-haiku",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "anthropic/claude-3-haiku", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello there  "}}]}`))
	}))
	defer server.Close()

	reply, err := testClient(server).Complete(context.Background(), []Message{
		{Role: "system", Content: ChatSystemPrompt},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestComplete_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	_, err := testClient(server).Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestComplete_MissingKey(t *testing.T) {
	c := &Client{HTTPClient: http.DefaultClient}
	_, err := c.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCompleteJSON_StripsFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "```json\n{\"summary\":\"rest well\",\"recommendations\":[\"sleep\"]}\n```"
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	var out struct {
		Summary         string   `json:"summary"`
		Recommendations []string `json:"recommendations"`
	}
	err := testClient(server).CompleteJSON(context.Background(), []Message{{Role: "user", Content: "hi"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "rest well", out.Summary)
	assert.Equal(t, []string{"sleep"}, out.Recommendations)
}

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json untouched", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"whitespace trimmed", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripJSONFences(tt.input))
		})
	}
}
