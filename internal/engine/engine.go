package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pocketrag/pocketrag/internal/lsh"
	"github.com/pocketrag/pocketrag/internal/similarity"
	"github.com/pocketrag/pocketrag/internal/storage"
	"github.com/pocketrag/pocketrag/pkg/types"
)

const (
	// DefaultBatchSize is the default ingestion batch size
	DefaultBatchSize = 50

	// DefaultNumTables is the default number of LSH hash tables
	DefaultNumTables = 8

	// DefaultBits is the default LSH signature length
	DefaultBits = 12

	// DefaultHotCacheSize bounds the in-memory record cache
	DefaultHotCacheSize = 4096
)

// Options configures a hybrid search engine
type Options struct {
	NumTables       int // LSH hash tables (recall knob)
	Bits            int // LSH signature bits (precision/recall knob)
	HotCacheSize    int // max records held in the hot content cache
	MaxIndexEntries int // LSH entry cap enforced after ingestion; 0 disables trimming
}

// DefaultOptions returns the default engine configuration
func DefaultOptions() Options {
	return Options{
		NumTables:    DefaultNumTables,
		Bits:         DefaultBits,
		HotCacheSize: DefaultHotCacheSize,
	}
}

// Engine is the single entry point combining the persistent store, the norm
// and hot-content caches, exact brute-force search, and the approximate LSH
// path. All mutating paths hold the engine lock exclusively, so a successful
// InsertBatch is visible to every subsequent search on the same instance.
type Engine struct {
	store     storage.Store
	dimension int
	opts      Options

	mu    sync.RWMutex
	norms *similarity.NormCache
	exact *similarity.Engine
	hot   *lru.Cache[string, types.VectorRecord]
	index *lsh.Index
}

// New creates a hybrid search engine over the given store.
func New(store storage.Store, opts Options) (*Engine, error) {
	if opts.NumTables <= 0 {
		opts.NumTables = DefaultNumTables
	}
	if opts.Bits <= 0 {
		opts.Bits = DefaultBits
	}
	if opts.HotCacheSize <= 0 {
		opts.HotCacheSize = DefaultHotCacheSize
	}

	dimension := store.Dimension()

	index, err := lsh.NewIndex(opts.NumTables, opts.Bits, dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to create LSH index: %w", err)
	}

	hot, err := lru.New[string, types.VectorRecord](opts.HotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create hot cache: %w", err)
	}

	norms := similarity.NewNormCache()

	return &Engine{
		store:     store,
		dimension: dimension,
		opts:      opts,
		norms:     norms,
		exact:     similarity.NewEngine(dimension, norms),
		hot:       hot,
		index:     index,
	}, nil
}

// Dimension returns the embedding dimension the engine operates on.
func (e *Engine) Dimension() int {
	return e.dimension
}

// BatchError reports a failed ingestion batch. Batches committed before the
// failing one stay committed; ingestion is batch-atomic, not globally atomic.
type BatchError struct {
	Offset int // index of the first record in the failed batch
	Size   int // number of records in the failed batch
	Err    error
}

func (b *BatchError) Error() string {
	return fmt.Sprintf("batch at offset %d (%d records) failed: %v", b.Offset, b.Size, b.Err)
}

func (b *BatchError) Unwrap() error {
	return b.Err
}

// InsertBatch ingests records in batches of batchSize. Each batch persists as
// one transaction, then warms the norm cache, the hot content cache, and the
// LSH index. On a batch failure the remaining records are not attempted and a
// BatchError identifies where ingestion stopped.
func (e *Engine) InsertBatch(ctx context.Context, records []types.VectorRecord, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	for offset := 0; offset < len(records); offset += batchSize {
		end := offset + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[offset:end]

		if err := e.insertOne(ctx, batch); err != nil {
			return &BatchError{Offset: offset, Size: len(batch), Err: err}
		}
	}
	return nil
}

// insertOne persists and indexes a single batch
func (e *Engine) insertOne(ctx context.Context, batch []types.VectorRecord) error {
	// Persist first: the store transaction is the unit of atomicity. Caches
	// and the index are only updated for records that committed.
	if err := e.store.InsertAll(ctx, batch); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range batch {
		record := &batch[i]
		e.norms.Put(record.ID, similarity.Norm(record.Embedding))
		e.hot.Add(record.ID, record.Clone())
		if err := e.index.Insert(record.ID, record.Embedding); err != nil {
			return err
		}
	}

	if e.opts.MaxIndexEntries > 0 && e.index.Len() > e.opts.MaxIndexEntries {
		e.index.Trim(e.opts.MaxIndexEntries)
	}
	return nil
}

// Search performs exact brute-force top-k search over all stored records.
// filter narrows candidates by exact metadata equality before scoring;
// results scoring below threshold are dropped.
func (e *Engine) Search(ctx context.Context, query []float32, k int, filter map[string]string, threshold float32) ([]types.SearchResult, error) {
	if len(query) != e.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, engine requires %d",
			types.ErrDimensionMismatch, len(query), e.dimension)
	}

	records, err := e.candidateRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	results, err := e.exact.Search(ctx, records, query, k, filter)
	if err != nil {
		return nil, err
	}

	return applyThreshold(results, threshold), nil
}

// candidateRecords fetches the scan set, using the store's metadata lookup as
// a coarse prefilter when a filter is present.
func (e *Engine) candidateRecords(ctx context.Context, filter map[string]string) ([]types.VectorRecord, error) {
	if len(filter) > 0 {
		// Prefilter on one key at the storage layer; the exact engine applies
		// the full filter during scoring.
		for key, value := range filter {
			return e.store.FindByMetadata(ctx, key, value)
		}
	}
	return e.store.GetAll(ctx)
}

// SearchApproximate performs the two-phase approximate search: LSH candidate
// generation followed by exact re-scoring of the candidate set only. Ranking
// quality among retrieved candidates matches the exact path; what LSH risks
// is recall, not precision.
func (e *Engine) SearchApproximate(ctx context.Context, query []float32, k int) ([]types.SearchResult, error) {
	if len(query) != e.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, engine requires %d",
			types.ErrDimensionMismatch, len(query), e.dimension)
	}
	if k <= 0 {
		return []types.SearchResult{}, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates, err := e.index.Candidates(query)
	if err != nil {
		return nil, err
	}

	queryNorm := similarity.Norm(query)
	results := make([]types.SearchResult, 0, len(candidates))

	for id := range candidates {
		record, err := e.resolveCandidate(ctx, id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			// Stale index entry for a deleted record; skip.
			continue
		}

		recordNorm := e.norms.Norm(record.ID, record.Embedding)
		score := similarity.CosineWithNorms(query, record.Embedding, queryNorm, recordNorm)
		results = append(results, types.SearchResult{Record: *record, Score: score})
	}

	similarity.SortResults(results)
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// resolveCandidate looks a candidate id up in the hot cache, falling back to
// the store on a miss. A candidate evicted from the cache must still be
// findable, otherwise approximate recall silently decays under memory
// pressure. Returns (nil, nil) for ids whose records no longer exist.
func (e *Engine) resolveCandidate(ctx context.Context, id string) (*types.VectorRecord, error) {
	if record, ok := e.hot.Get(id); ok {
		return &record, nil
	}

	record, err := e.store.GetByID(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidate %s: %w", id, err)
	}

	e.hot.Add(id, record.Clone())
	return record, nil
}

// Delete removes a record from the store, both caches, and the LSH buckets.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.norms.Invalidate(id)
	e.hot.Remove(id)
	e.index.Remove(id)
	return nil
}

// CleanupCache drops the norm and hot-content caches without touching
// persisted records or the LSH index. Used under memory pressure; subsequent
// searches repopulate lazily from the store.
func (e *Engine) CleanupCache() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.norms.Clear()
	e.hot.Purge()
}

// ClearIndex drops all LSH buckets. Approximate search returns nothing until
// records are re-indexed; exact search is unaffected.
func (e *Engine) ClearIndex() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.Clear()
}

// Stats reports engine state for diagnostics
type Stats struct {
	Records      int
	CachedNorms  int
	HotRecords   int
	IndexEntries int
	IndexTables  int
	Dimension    int
}

// GetStats returns current store and cache statistics.
func (e *Engine) GetStats(ctx context.Context) (*Stats, error) {
	count, err := e.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return &Stats{
		Records:      count,
		CachedNorms:  e.norms.Len(),
		HotRecords:   e.hot.Len(),
		IndexEntries: e.index.Len(),
		IndexTables:  e.index.NumTables(),
		Dimension:    e.dimension,
	}, nil
}

// applyThreshold drops results scoring below threshold
func applyThreshold(results []types.SearchResult, threshold float32) []types.SearchResult {
	if threshold <= 0 {
		return results
	}
	filtered := results[:0]
	for _, r := range results {
		if r.Score >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
