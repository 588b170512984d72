package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketrag/pocketrag/internal/storage"
	"github.com/pocketrag/pocketrag/pkg/types"
)

const testDimension = 4

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:", testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	eng, err := New(store, DefaultOptions())
	require.NoError(t, err)
	return eng
}

func record(id string, embedding []float32, meta map[string]string) types.VectorRecord {
	return types.VectorRecord{
		ID:        id,
		Content:   "content for " + id,
		Embedding: embedding,
		Metadata:  meta,
	}
}

func scenarioRecords() []types.VectorRecord {
	return []types.VectorRecord{
		record("doc-a", []float32{1, 0, 0, 0}, map[string]string{"topic": "cats"}),
		record("doc-b", []float32{0.9, 0.1, 0, 0}, map[string]string{"topic": "cats"}),
		record("doc-c", []float32{0, 0, 0, 1}, map[string]string{"topic": "cars"}),
	}
}

func TestInsertBatch_ReadAfterWrite(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 2))

	results, err := eng.Search(ctx, []float32{1, 0, 0, 0}, 3, nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc-a", results[0].Record.ID)
	assert.Equal(t, "doc-b", results[1].Record.ID)
	assert.Equal(t, "doc-c", results[2].Record.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestInsertBatch_EarlierBatchesStayCommitted(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	records := []types.VectorRecord{
		record("ok-1", []float32{1, 0, 0, 0}, nil),
		record("ok-2", []float32{0, 1, 0, 0}, nil),
		record("bad", []float32{1, 0}, nil), // wrong dimension
		record("ok-3", []float32{0, 0, 1, 0}, nil),
	}

	err := eng.InsertBatch(ctx, records, 2)
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Offset)
	assert.Equal(t, 2, batchErr.Size)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	stats, err := eng.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)

	// The failed batch is all-or-nothing: ok-3 must not have been committed
	_, err = eng.Search(ctx, []float32{0, 0, 1, 0}, 1, nil, 0.99)
	require.NoError(t, err)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Search(context.Background(), []float32{1, 0}, 3, nil, 0)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	_, err = eng.SearchApproximate(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestSearch_MetadataFilter(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))

	results, err := eng.Search(ctx, []float32{1, 0, 0, 0}, 10, map[string]string{"topic": "cars"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-c", results[0].Record.ID)
}

func TestSearch_Threshold(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))

	// doc-c is orthogonal to the query and scores 0; the threshold drops it
	results, err := eng.Search(ctx, []float32{1, 0, 0, 0}, 10, nil, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-a", results[0].Record.ID)
	assert.Equal(t, "doc-b", results[1].Record.ID)
}

func TestSearchApproximate_FindsNearDuplicates(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))

	// doc-a and doc-b point in nearly the same direction as the query, so at
	// least one of them must appear; candidates are re-scored exactly, so
	// whatever is returned is correctly ranked.
	results, err := eng.SearchApproximate(ctx, []float32{1, 0.05, 0, 0}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, []string{"doc-a", "doc-b"}, results[0].Record.ID)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchApproximate_StoreFallbackAfterCacheCleanup(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))

	// Dropping the caches must not hide indexed records: candidates are
	// resolved from the store on a cache miss.
	eng.CleanupCache()

	results, err := eng.SearchApproximate(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, []string{"doc-a", "doc-b"}, results[0].Record.ID)
	assert.Equal(t, "content for "+results[0].Record.ID, results[0].Record.Content)
}

func TestSearchApproximate_SkipsDeletedCandidates(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))

	// Delete through the store directly, leaving the LSH entry stale
	require.NoError(t, eng.store.DeleteByID(ctx, "doc-a"))
	eng.hot.Remove("doc-a")

	results, err := eng.SearchApproximate(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "doc-a", r.Record.ID)
	}
}

func TestDelete_RemovesEverywhere(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))
	require.NoError(t, eng.Delete(ctx, "doc-a"))

	results, err := eng.Search(ctx, []float32{1, 0, 0, 0}, 10, nil, 0)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "doc-a", r.Record.ID)
	}

	approx, err := eng.SearchApproximate(ctx, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	for _, r := range approx {
		assert.NotEqual(t, "doc-a", r.Record.ID)
	}

	stats, err := eng.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
}

func TestDelete_MissingIDIsNoOp(t *testing.T) {
	eng := newTestEngine(t)

	assert.NoError(t, eng.Delete(context.Background(), "never-existed"))
}

func TestCleanupCache_DoesNotTouchIndexOrStore(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))
	eng.CleanupCache()

	stats, err := eng.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Records)
	assert.Equal(t, 0, stats.CachedNorms)
	assert.Equal(t, 0, stats.HotRecords)
	// One (bucket, id) entry per record per table
	assert.Equal(t, 3*stats.IndexTables, stats.IndexEntries)
}

func TestClearIndex_ExactSearchUnaffected(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.InsertBatch(ctx, scenarioRecords(), 0))
	eng.ClearIndex()

	approx, err := eng.SearchApproximate(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, approx)

	exact, err := eng.Search(ctx, []float32{1, 0, 0, 0}, 3, nil, 0)
	require.NoError(t, err)
	assert.Len(t, exact, 3)
}

func TestInsertBatch_TrimsIndex(t *testing.T) {
	store, err := storage.NewSQLiteStore(":memory:", testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	opts := DefaultOptions()
	opts.MaxIndexEntries = 4
	eng, err := New(store, opts)
	require.NoError(t, err)

	ctx := context.Background()
	records := make([]types.VectorRecord, 8)
	for i := range records {
		records[i] = record(fmt.Sprintf("rec-%d", i), []float32{float32(i + 1), 1, 0, 0}, nil)
	}
	require.NoError(t, eng.InsertBatch(ctx, records, 0))

	stats, err := eng.GetStats(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.IndexEntries, 4)
	assert.Equal(t, 8, stats.Records)
}

func TestBatchError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := &BatchError{Offset: 10, Size: 5, Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "offset 10")
}
