package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Embedder turns text into fixed-length vectors. Implementations wrap one
// provider; the engine and pipeline only ever see this interface, so providers
// stay swappable as long as they agree on the dimension.
type Embedder interface {
	// GenerateEmbedding embeds a single text
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)

	// GenerateBatch embeds several texts in one provider round trip
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)

	// Dimension returns the vector length this embedder produces
	Dimension() int

	// Provider returns the provider name (ollama, openai, mock)
	Provider() string

	// Model returns the model identifier in use
	Model() string

	// Close releases provider resources
	Close() error
}

// Embedding is one embedded text: the vector plus where it came from.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // SHA-256 of the source text, doubles as the cache key
}

// EmbeddingRequest carries a single text to embed
type EmbeddingRequest struct {
	Text  string
	Model string // overrides the provider default when set
}

// BatchEmbeddingRequest carries several texts to embed together
type BatchEmbeddingRequest struct {
	Texts []string
	Model string // overrides the provider default when set
}

// BatchEmbeddingResponse returns embeddings in input order
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Sentinel errors shared by all providers
var (
	ErrEmptyText         = errors.New("embedding text cannot be empty")
	ErrInvalidBatch      = errors.New("invalid embedding batch")
	ErrBatchTooLarge     = errors.New("embedding batch exceeds provider limit")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
	ErrNoProviderEnabled = errors.New("no embedding provider configured")
)

// hashText derives the cache key for a text
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// validateText rejects empty input before it reaches a provider
func validateText(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// validateBatch rejects empty batches and empty entries within a batch
func validateBatch(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: no texts", ErrInvalidBatch)
	}
	for i, text := range req.Texts {
		if text == "" {
			return fmt.Errorf("%w: empty text at index %d", ErrInvalidBatch, i)
		}
	}
	return nil
}

// DefaultCacheSize bounds the embedding cache when no size is configured
const DefaultCacheSize = 10000

// Cache memoizes embeddings by content hash with LRU eviction. Chunks repeat
// across re-ingests and query texts repeat verbatim, so hits are frequent
// enough to save real provider calls.
type Cache struct {
	entries *lru.Cache[string, *Embedding]
}

// NewCache creates a cache holding at most maxEntries embeddings.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size, which is guarded above
	entries, _ := lru.New[string, *Embedding](maxEntries)
	return &Cache{entries: entries}
}

// Get returns a deep copy of the cached embedding. Copying keeps caller
// mutations of the vector out of the cache.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.entries.Get(hash)
	if !ok {
		return nil, false
	}

	vector := make([]float32, len(emb.Vector))
	copy(vector, emb.Vector)

	clone := *emb
	clone.Vector = vector
	return &clone, true
}

// Put stores an embedding, evicting the least recently used entry when full.
func (c *Cache) Put(hash string, emb *Embedding) {
	c.entries.Add(hash, emb)
}

// Len returns the number of cached embeddings.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.entries.Purge()
}
