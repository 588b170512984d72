package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	assert.ErrorIs(t, validateRequest(Request{}), ErrEmptyPrompt)
	assert.NoError(t, validateRequest(Request{Prompt: "hi"}))
}

func TestMockGenerator_Generate(t *testing.T) {
	mock := NewMockGenerator("the answer")

	result, err := mock.Generate(context.Background(), Request{Prompt: "a question"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Text)
	assert.Equal(t, []string{"a question"}, mock.Prompts)
}

func TestMockGenerator_Stream(t *testing.T) {
	mock := NewMockGenerator("one two three")

	var collected strings.Builder
	err := mock.GenerateStream(context.Background(), Request{Prompt: "q"}, func(token string) error {
		collected.WriteString(token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "one two three", collected.String())
}

func TestMockGenerator_StreamStopsOnCallbackError(t *testing.T) {
	mock := NewMockGenerator("one two three four")
	stop := errors.New("stop")

	calls := 0
	err := mock.GenerateStream(context.Background(), Request{Prompt: "q"}, func(token string) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestOllamaGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "why is the sky blue?", req.Prompt)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "rayleigh scattering", Done: true})
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "test-model")
	result, err := gen.Generate(context.Background(), Request{Prompt: "why is the sky blue?"})
	require.NoError(t, err)
	assert.Equal(t, "rayleigh scattering", result.Text)
	assert.Equal(t, "test-model", result.Model)
}

func TestOllamaGenerator_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		_ = enc.Encode(generateResponse{Response: "hello "})
		_ = enc.Encode(generateResponse{Response: "world"})
		_ = enc.Encode(generateResponse{Done: true})
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "")

	var collected strings.Builder
	err := gen.GenerateStream(context.Background(), Request{Prompt: "greet"}, func(token string) error {
		collected.WriteString(token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", collected.String())
}

func TestOllamaGenerator_StreamCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		_ = enc.Encode(generateResponse{Response: "first "})
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
		_ = enc.Encode(generateResponse{Response: "never delivered"})
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	gen := NewOllamaGenerator(server.URL, "")

	tokensAfterCancel := 0
	err := gen.GenerateStream(ctx, Request{Prompt: "q"}, func(token string) error {
		// Cancel after the first token; nothing may arrive afterwards
		if ctx.Err() != nil {
			tokensAfterCancel++
		}
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tokensAfterCancel)
}

func TestOllamaGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "")
	_, err := gen.Generate(context.Background(), Request{Prompt: "q"})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestNewFromEnv_ExplicitOllama(t *testing.T) {
	t.Setenv(EnvProvider, "ollama")

	gen, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, gen.Provider())
}

func TestNewFromEnv_Unknown(t *testing.T) {
	t.Setenv(EnvProvider, "banana")

	_, err := NewFromEnv()
	assert.Error(t, err)
}
