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

	"github.com/iliyamo/zenpod/internal/config"
)

type chatRequest struct {
	Model     string `json:"model"`
	MaxTokens int64  `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl-1", "object": "chat.completion", "created": 1, "model": "doubao-pro-32k",
			"choices": []map[string]any{{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPlaceholderWithoutKey(t *testing.T) {
	c := NewClient(config.AIConfig{Model: "m"})
	assert.False(t, c.Enabled())

	got, err := c.Explain(context.Background(), "色即是空", "")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderExplain, got)

	got, err = c.Ask(context.Background(), "what is emptiness?", "")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderAsk, got)
}

func TestExplain(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK, "空性之义", &seen)
	c := NewClient(config.AIConfig{APIKey: "key", BaseURL: srv.URL, Model: "doubao-pro-32k", MaxTokens: 600, Timeout: 5 * time.Second})

	got, err := c.Explain(context.Background(), "色即是空", "心经")
	require.NoError(t, err)
	assert.Equal(t, "空性之义", got)

	assert.Equal(t, "doubao-pro-32k", seen.Model)
	assert.Equal(t, int64(600), seen.MaxTokens)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[1].Content, "「色即是空」")
	assert.Contains(t, seen.Messages[1].Content, "经文出处：心经")
}

func TestAskIncludesScripture(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK, "answer", &seen)
	c := NewClient(config.AIConfig{APIKey: "key", BaseURL: srv.URL, Model: "m"})

	_, err := c.Ask(context.Background(), "为何?", "观自在菩萨")
	require.NoError(t, err)
	assert.Contains(t, seen.Messages[1].Content, "相关经文：「观自在菩萨」")
	assert.Contains(t, seen.Messages[1].Content, "问题：为何?")
}

func TestProviderFailure(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "", nil)
	c := NewClient(config.AIConfig{APIKey: "key", BaseURL: srv.URL, Model: "m"})
	_, err := c.Explain(context.Background(), "x", "")
	assert.Error(t, err)

	empty := completionServer(t, http.StatusOK, "", nil)
	c = NewClient(config.AIConfig{APIKey: "key", BaseURL: empty.URL, Model: "m"})
	_, err = c.Ask(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}
