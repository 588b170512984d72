package lsh

import (
	"fmt"
	"math/rand"
	"sync"
)

// bucketKey addresses one bucket: a table index plus a signature within that
// table.
type bucketKey struct {
	table     int
	signature string
}

// Index is a multi-table LSH index over record ids. Each table hashes with an
// independent Hasher; a query's candidate set is the union of the buckets its
// signatures address across all tables.
//
// The index holds ids only, never records: the authoritative copy lives in
// the persistence layer. Stale ids left behind by deletes are tolerated and
// filtered by callers at query time.
type Index struct {
	mu      sync.RWMutex
	hashers []*Hasher
	buckets map[bucketKey]map[string]struct{}
	// order tracks bucket creation order so Trim can evict oldest-first
	order   []bucketKey
	entries int
}

// NewIndex creates an index with numTables independent hash tables of the
// given signature length over dim-dimensional vectors. Per-table seeds derive
// from one random base seed, so tables are independent of each other but the
// insert and query paths of a single index always agree.
func NewIndex(numTables, bits, dim int) (*Index, error) {
	if numTables <= 0 {
		return nil, fmt.Errorf("lsh: numTables must be positive, got %d", numTables)
	}

	baseSeed := rand.Int63()
	return NewIndexWithSeed(numTables, bits, dim, baseSeed)
}

// NewIndexWithSeed is NewIndex with an explicit base seed, used by tests that
// need reproducible hyperplanes.
func NewIndexWithSeed(numTables, bits, dim int, baseSeed int64) (*Index, error) {
	if numTables <= 0 {
		return nil, fmt.Errorf("lsh: numTables must be positive, got %d", numTables)
	}

	hashers := make([]*Hasher, numTables)
	for i := range hashers {
		hasher, err := NewHasher(bits, dim, baseSeed+int64(i))
		if err != nil {
			return nil, err
		}
		hashers[i] = hasher
	}

	return &Index{
		hashers: hashers,
		buckets: make(map[bucketKey]map[string]struct{}),
	}, nil
}

// Insert adds id to one bucket per table. Costs numTables hash computations.
func (idx *Index) Insert(id string, vec []float32) error {
	keys, err := idx.signatureKeys(vec)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, key := range keys {
		bucket, ok := idx.buckets[key]
		if !ok {
			bucket = make(map[string]struct{})
			idx.buckets[key] = bucket
			idx.order = append(idx.order, key)
		}
		if _, exists := bucket[id]; !exists {
			bucket[id] = struct{}{}
			idx.entries++
		}
	}
	return nil
}

// Candidates returns the union of the buckets addressed by the query's
// signatures. No ranking happens here; this is a recall-oriented prefilter
// whose output callers re-score exactly.
func (idx *Index) Candidates(query []float32) (map[string]struct{}, error) {
	keys, err := idx.signatureKeys(query)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := make(map[string]struct{})
	for _, key := range keys {
		for id := range idx.buckets[key] {
			candidates[id] = struct{}{}
		}
	}
	return candidates, nil
}

// Remove deletes id from every bucket that contains it. Best effort: callers
// already tolerate stale ids, so Remove exists to reclaim memory, not to
// guarantee consistency.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, bucket := range idx.buckets {
		if _, ok := bucket[id]; ok {
			delete(bucket, id)
			idx.entries--
		}
	}
}

// Trim evicts whole buckets oldest-first until the total entry count is at or
// below maxEntries. This is a coarse memory bound, not a relevance policy;
// recall degrades for vectors whose buckets were evicted.
func (idx *Index) Trim(maxEntries int) {
	if maxEntries < 0 {
		maxEntries = 0
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	evicted := 0
	for idx.entries > maxEntries && evicted < len(idx.order) {
		key := idx.order[evicted]
		if bucket, ok := idx.buckets[key]; ok {
			idx.entries -= len(bucket)
			delete(idx.buckets, key)
		}
		evicted++
	}
	idx.order = idx.order[evicted:]
}

// Clear drops all buckets.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.buckets = make(map[bucketKey]map[string]struct{})
	idx.order = nil
	idx.entries = 0
}

// Len returns the total number of indexed (bucket, id) entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries
}

// NumTables returns the number of hash tables.
func (idx *Index) NumTables() int {
	return len(idx.hashers)
}

// signatureKeys computes the bucket key for vec in every table
func (idx *Index) signatureKeys(vec []float32) ([]bucketKey, error) {
	keys := make([]bucketKey, len(idx.hashers))
	for i, hasher := range idx.hashers {
		sig, err := hasher.Hash(vec)
		if err != nil {
			return nil, err
		}
		keys[i] = bucketKey{table: i, signature: sig}
	}
	return keys, nil
}
