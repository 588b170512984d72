package embedder

import (
	"context"
	"crypto/sha256"
	"math"
)

// MockProvider is a deterministic in-process embedder used by tests and
// offline development. It derives a unit-length vector from the SHA-256 of
// the input text, so equal texts always embed identically and distinct texts
// spread across the sphere.
type MockProvider struct {
	dimension int
	cache     *Cache
}

// NewMockProvider creates a mock embedder producing vectors of the given
// dimension.
func NewMockProvider(dimension int, cache *Cache) *MockProvider {
	if dimension <= 0 {
		dimension = 16
	}
	return &MockProvider{dimension: dimension, cache: cache}
}

func (m *MockProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := validateText(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := hashText(req.Text)
	if m.cache != nil {
		if emb, ok := m.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    m.deriveVector(req.Text),
		Dimension: m.dimension,
		Provider:  "mock",
		Model:     "mock-embeddings",
		Hash:      hash,
	}

	if m.cache != nil {
		m.cache.Put(hash, emb)
	}
	return emb, nil
}

func (m *MockProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := validateBatch(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   "mock",
		Model:      "mock-embeddings",
	}, nil
}

// deriveVector expands the text hash into a unit vector
func (m *MockProvider) deriveVector(text string) []float32 {
	vector := make([]float32, m.dimension)
	seed := sha256.Sum256([]byte(text))

	// Re-hash to fill dimensions beyond the first digest
	var norm float64
	digest := seed
	for i := 0; i < m.dimension; i++ {
		if i > 0 && i%len(digest) == 0 {
			digest = sha256.Sum256(digest[:])
		}
		// Center bytes on zero so vectors point in varied directions
		vector[i] = float32(int(digest[i%len(digest)])-128) / 128.0
		norm += float64(vector[i]) * float64(vector[i])
	}

	if norm > 0 {
		scale := float32(1.0 / math.Sqrt(norm))
		for i := range vector {
			vector[i] *= scale
		}
	}
	return vector
}

func (m *MockProvider) Dimension() int {
	return m.dimension
}

func (m *MockProvider) Provider() string {
	return "mock"
}

func (m *MockProvider) Model() string {
	return "mock-embeddings"
}

func (m *MockProvider) Close() error {
	return nil
}
