package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/retry"
)

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:    2,
		BackoffFactor: 1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
	}
}

const chatReply = `{"choices":[{"message":{"role":"assistant","content":"Hello!"}}]}`

func TestOpenAICompatible_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var body struct {
			Model    string             `json:"model"`
			Messages []core.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3.2", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, core.RoleSystem, body.Messages[0].Role)

		w.Write([]byte(chatReply))
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL: server.URL, APIKey: "key", Model: "llama3.2",
		AuthHeader: "Authorization", AuthPrefix: "Bearer ", Retry: fastRetry(),
	})

	reply, err := p.Chat(context.Background(), []core.ChatMessage{
		{Role: core.RoleSystem, Content: "You are Mareen."},
		{Role: core.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, core.ChatMessage{Role: core.RoleAssistant, Content: "Hello!"}, reply)
}

func TestOpenAICompatible_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatReply))
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: server.URL, Model: "m", Retry: fastRetry()})

	reply, err := p.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAICompatible_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewOpenAICompatible(OpenAICompatibleConfig{BaseURL: server.URL, Model: "m", Retry: fastRetry()})

	_, err := p.Chat(context.Background(), []core.ChatMessage{{Role: core.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrProvider))
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOllama_Models(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3.2"},{"name":"nomic-embed-text"}]}`))
	}))
	defer server.Close()

	models, err := NewOllama(server.URL, "", "llama3.2", 0).Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Model{{ID: "llama3.2", Name: "llama3.2"}, {ID: "nomic-embed-text", Name: "nomic-embed-text"}}, models)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, &config.LLMConfig{Provider: config.LLMProviderOllama, Model: "llama3.2"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", p.Model())

	_, err = NewProvider(ctx, &config.LLMConfig{Provider: config.LLMProviderCustom})
	assert.Error(t, err)

	_, err = NewProvider(ctx, &config.LLMConfig{Provider: "anthropic"})
	assert.Error(t, err)
}
