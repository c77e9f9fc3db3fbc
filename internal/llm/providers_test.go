package llm

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "A crisp post about shipping."}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 17}
		}`))
	}))
	defer server.Close()

	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_API_KEY", "test-key")

	client := NewOpenAIClient(5 * time.Second)
	result, err := client.Generate(context.Background(), Request{
		System: "You draft posts.",
		Prompt: "Write about shipping.",
		Model:  "gpt-5-mini",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "A crisp post about shipping.", result.Text)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, 42, result.TokensIn)
	assert.Equal(t, 17, result.TokensOut)
}

func TestOpenAIMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client := NewOpenAIClient(time.Second)
	_, err := client.Generate(context.Background(), Request{Prompt: "x", Model: "gpt-5-mini"})

	var pErr *ProviderError
	require.True(t, stderrors.As(err, &pErr))
	assert.Equal(t, KindAuth, pErr.Kind)
}

func TestOpenAIStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   string
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusServiceUnavailable, KindUnavailable},
		{http.StatusBadRequest, KindHTTPError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			t.Setenv("OPENAI_BASE_URL", server.URL)
			t.Setenv("OPENAI_API_KEY", "test-key")

			client := NewOpenAIClient(5 * time.Second)
			_, err := client.Generate(context.Background(), Request{Prompt: "x", Model: "gpt-5-mini"})

			var pErr *ProviderError
			require.True(t, stderrors.As(err, &pErr))
			assert.Equal(t, tt.kind, pErr.Kind)
		})
	}
}

func TestOpenAIEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "   "}}]}`))
	}))
	defer server.Close()

	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_API_KEY", "test-key")

	client := NewOpenAIClient(5 * time.Second)
	_, err := client.Generate(context.Background(), Request{Prompt: "x", Model: "gpt-5-mini"})

	var pErr *ProviderError
	require.True(t, stderrors.As(err, &pErr))
	assert.Equal(t, KindEmpty, pErr.Kind)
}

func TestAnthropicGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "Part one. "}, {"type": "text", "text": "Part two."}],
			"usage": {"input_tokens": 30, "output_tokens": 12}
		}`))
	}))
	defer server.Close()

	t.Setenv("ANTHROPIC_BASE_URL", server.URL)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	client := NewAnthropicClient(5 * time.Second)
	result, err := client.Generate(context.Background(), Request{Prompt: "write", Model: "claude-haiku-4-5"})
	require.NoError(t, err)
	assert.Equal(t, "Part one. Part two.", result.Text)
	assert.Equal(t, 30, result.TokensIn)
	assert.Equal(t, 12, result.TokensOut)
}

func TestGeminiGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-3-flash-preview:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "A post."}]}}],
			"usageMetadata": {"promptTokenCount": 20, "candidatesTokenCount": 8}
		}`))
	}))
	defer server.Close()

	t.Setenv("GEMINI_BASE_URL", server.URL)
	t.Setenv("GEMINI_API_KEY", "test-key")

	client := NewGeminiClient(5 * time.Second)
	result, err := client.Generate(context.Background(), Request{Prompt: "write", Model: "gemini-3-flash-preview"})
	require.NoError(t, err)
	assert.Equal(t, "A post.", result.Text)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, 20, result.TokensIn)
}

func TestGeminiGoogleKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "fallback-key")

	client := NewGeminiClient(time.Second)
	assert.Equal(t, "fallback-key", client.apiKey)
}

func TestProviderTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		// Outlives the client deadline below, then returns so Close
		// does not wait on a blocked handler.
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	t.Setenv("OPENAI_BASE_URL", server.URL)
	t.Setenv("OPENAI_API_KEY", "test-key")

	client := NewOpenAIClient(time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, Request{Prompt: "x", Model: "gpt-5-mini"})

	var pErr *ProviderError
	require.True(t, stderrors.As(err, &pErr))
	assert.Equal(t, KindTimeout, pErr.Kind)
}
