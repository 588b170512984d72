package embedder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashText(t *testing.T) {
	h1 := hashText("hello")
	h2 := hashText("hello")
	h3 := hashText("world")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // hex-encoded SHA-256
}

func TestCache_GetPut(t *testing.T) {
	cache := NewCache(10)

	emb := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  "mock",
		Model:     "test",
		Hash:      "abc",
	}
	cache.Put("abc", emb)

	got, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, emb.Vector, got.Vector)

	// Mutating the returned copy must not pollute the cache
	got.Vector[0] = 99
	again, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestCache_Purge(t *testing.T) {
	cache := NewCache(10)
	cache.Put("a", &Embedding{})
	require.Equal(t, 1, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestValidateText(t *testing.T) {
	assert.ErrorIs(t, validateText(EmbeddingRequest{}), ErrEmptyText)
	assert.NoError(t, validateText(EmbeddingRequest{Text: "hi"}))
}

func TestValidateBatch(t *testing.T) {
	assert.ErrorIs(t, validateBatch(BatchEmbeddingRequest{}), ErrInvalidBatch)
	assert.ErrorIs(t, validateBatch(BatchEmbeddingRequest{Texts: []string{"a", ""}}), ErrInvalidBatch)
	assert.NoError(t, validateBatch(BatchEmbeddingRequest{Texts: []string{"a", "b"}}))
}

func TestMockProvider_Deterministic(t *testing.T) {
	mock := NewMockProvider(16, nil)
	ctx := context.Background()

	first, err := mock.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cats are mammals"})
	require.NoError(t, err)
	assert.Len(t, first.Vector, 16)

	second, err := mock.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cats are mammals"})
	require.NoError(t, err)
	assert.Equal(t, first.Vector, second.Vector)

	other, err := mock.GenerateEmbedding(ctx, EmbeddingRequest{Text: "stars are distant suns"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Vector, other.Vector)
}

func TestMockProvider_UnitNorm(t *testing.T) {
	mock := NewMockProvider(32, nil)

	emb, err := mock.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "normalize me"})
	require.NoError(t, err)

	var norm float64
	for _, v := range emb.Vector {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestMockProvider_Batch(t *testing.T) {
	mock := NewMockProvider(8, NewCache(10))

	resp, err := mock.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"one", "two", "three"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Embeddings, 3)
	for _, emb := range resp.Embeddings {
		assert.Len(t, emb.Vector, 8)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	attempts := 0
	policy := backoffPolicy{
		attempts: 3,
		initial:  time.Millisecond,
		cap:      10 * time.Millisecond,
	}

	result, err := retry(context.Background(), policy, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_Exhausted(t *testing.T) {
	policy := backoffPolicy{
		attempts: 2,
		initial:  time.Millisecond,
		cap:      10 * time.Millisecond,
	}

	sentinel := errors.New("persistent failure")
	_, err := retry(context.Background(), policy, func() (int, error) {
		return 0, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestRetry_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := retry(ctx, defaultBackoff(), func() (int, error) {
		return 0, errors.New("fails")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	assert.Equal(t, ProviderOllama, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvProvider, "OLLAMA")
	assert.Equal(t, ProviderOllama, DetectProvider())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "banana"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
