package similarity

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pocketrag/pocketrag/pkg/types"
)

const (
	// ScanChunkSize is the number of records evaluated per parallel scan task
	ScanChunkSize = 100
)

// Engine performs exact brute-force cosine top-k search over a record slice.
// Records are scanned in fixed-size chunks evaluated concurrently; each chunk
// writes to its own result slot, so no locking is needed during scoring.
type Engine struct {
	dimension int
	norms     *NormCache
}

// NewEngine creates an exact search engine for the given embedding dimension.
// A nil norms cache disables norm memoization.
func NewEngine(dimension int, norms *NormCache) *Engine {
	return &Engine{dimension: dimension, norms: norms}
}

// Search scans records and returns up to k results ordered by descending
// cosine similarity to query. Ties break by ascending record id so ordering
// is deterministic. An optional metadata filter narrows the candidate set by
// exact key/value equality before scoring.
func (e *Engine) Search(ctx context.Context, records []types.VectorRecord, query []float32, k int, filter map[string]string) ([]types.SearchResult, error) {
	if len(query) != e.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, engine requires %d",
			types.ErrDimensionMismatch, len(query), e.dimension)
	}
	if k <= 0 || len(records) == 0 {
		return []types.SearchResult{}, nil
	}

	queryNorm := Norm(query)

	// Score chunks concurrently; chunk i writes only to chunkResults[i].
	numChunks := (len(records) + ScanChunkSize - 1) / ScanChunkSize
	chunkResults := make([][]types.SearchResult, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numChunks; i++ {
		start := i * ScanChunkSize
		end := start + ScanChunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		slot := i

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunkResults[slot] = e.scoreChunk(chunk, query, queryNorm, filter)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Combine and rank
	results := make([]types.SearchResult, 0, len(records))
	for _, chunk := range chunkResults {
		results = append(results, chunk...)
	}

	SortResults(results)

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// scoreChunk computes similarity for one chunk of records
func (e *Engine) scoreChunk(chunk []types.VectorRecord, query []float32, queryNorm float64, filter map[string]string) []types.SearchResult {
	results := make([]types.SearchResult, 0, len(chunk))
	for i := range chunk {
		record := &chunk[i]
		if len(filter) > 0 && !record.MatchesMetadata(filter) {
			continue
		}
		if len(record.Embedding) != e.dimension {
			// Stale record from a differently-sized corpus; skip rather than
			// abort the whole scan.
			continue
		}

		var score float32
		if e.norms != nil {
			recordNorm := e.norms.Norm(record.ID, record.Embedding)
			score = CosineWithNorms(query, record.Embedding, queryNorm, recordNorm)
		} else {
			score = Cosine(query, record.Embedding)
		}

		results = append(results, types.SearchResult{Record: *record, Score: score})
	}
	return results
}

// SortResults orders results by descending score, breaking ties by ascending
// record id for deterministic output.
func SortResults(results []types.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.ID < results[j].Record.ID
	})
}
