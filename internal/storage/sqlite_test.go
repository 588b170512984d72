package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketrag/pocketrag/pkg/types"
)

const testDimension = 4

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRecord(id string, embedding []float32) types.VectorRecord {
	return types.VectorRecord{
		ID:        id,
		Content:   "content for " + id,
		Embedding: embedding,
		Metadata:  map[string]string{"source": "test.txt", "topic": "animals"},
	}
}

func TestInsertAndGetByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := testRecord("rec-1", []float32{1, 0, 0, 0})
	require.NoError(t, store.Insert(ctx, record))

	got, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Content, got.Content)
	assert.Equal(t, record.Embedding, got.Embedding)
	assert.Equal(t, record.Metadata, got.Metadata)
}

func TestGetByID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestInsert_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Insert(ctx, testRecord("bad", []float32{1, 0}))
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInsert_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("rec-1", []float32{1, 0, 0, 0})))

	// Re-inserting the same id replaces the record rather than duplicating it
	updated := testRecord("rec-1", []float32{0, 1, 0, 0})
	updated.Content = "updated content"
	require.NoError(t, store.Insert(ctx, updated))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.GetByID(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "updated content", got.Content)
	assert.Equal(t, []float32{0, 1, 0, 0}, got.Embedding)
}

func TestInsertAll_Transactional(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A dimension mismatch in the middle of the batch must roll back the
	// whole batch, including the valid records before it.
	records := []types.VectorRecord{
		testRecord("rec-1", []float32{1, 0, 0, 0}),
		testRecord("rec-2", []float32{1, 0}), // wrong dimension
		testRecord("rec-3", []float32{0, 0, 1, 0}),
	}

	err := store.InsertAll(ctx, records)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestInsertAll_CommitsBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := make([]types.VectorRecord, 10)
	for i := range records {
		records[i] = testRecord(fmt.Sprintf("rec-%02d", i), []float32{float32(i), 0, 0, 1})
	}
	require.NoError(t, store.InsertAll(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestGetAll_OrderedByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("b", []float32{0, 1, 0, 0})))
	require.NoError(t, store.Insert(ctx, testRecord("a", []float32{1, 0, 0, 0})))
	require.NoError(t, store.Insert(ctx, testRecord("c", []float32{0, 0, 1, 0})))

	records, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

func TestFindByMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cats := testRecord("cats", []float32{1, 0, 0, 0})
	cats.Metadata = map[string]string{"topic": "animals"}
	stars := testRecord("stars", []float32{0, 0, 0, 1})
	stars.Metadata = map[string]string{"topic": "astronomy"}
	require.NoError(t, store.Insert(ctx, cats))
	require.NoError(t, store.Insert(ctx, stars))

	matched, err := store.FindByMetadata(ctx, "topic", "animals")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "cats", matched[0].ID)

	// LIKE patterns work as coarse prefilters
	matched, err = store.FindByMetadata(ctx, "topic", "a%")
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	matched, err = store.FindByMetadata(ctx, "topic", "plants")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestDeleteByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("rec-1", []float32{1, 0, 0, 0})))
	require.NoError(t, store.DeleteByID(ctx, "rec-1"))

	_, err := store.GetByID(ctx, "rec-1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Deleting a missing id is not an error
	assert.NoError(t, store.DeleteByID(ctx, "rec-1"))
}

func TestDeleteAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testRecord("rec-1", []float32{1, 0, 0, 0})))
	require.NoError(t, store.Insert(ctx, testRecord("rec-2", []float32{0, 1, 0, 0})))
	require.NoError(t, store.DeleteAll(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestVectorRoundTrip(t *testing.T) {
	vector := []float32{0.5, -1.25, 3.75, 0}
	blob := SerializeVector(vector)
	assert.Len(t, blob, len(vector)*4)
	assert.Equal(t, vector, DeserializeVector(blob))
}

func TestDefaultDimension(t *testing.T) {
	store, err := NewSQLiteStore(":memory:", 0)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.Equal(t, types.DefaultDimension, store.Dimension())
}
