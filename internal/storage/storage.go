package storage

import (
	"context"

	"github.com/pocketrag/pocketrag/pkg/types"
)

// Store defines the persistence collaborator for vector records.
//
// Implementations enforce a fixed embedding dimension: any insert whose vector
// length differs from the store's dimension fails with
// types.ErrDimensionMismatch. ID uniqueness uses insert-or-replace semantics,
// so re-inserting an existing id replaces the record without growing Count.
type Store interface {
	// Insert stores a single record, replacing any existing record with the
	// same id.
	Insert(ctx context.Context, record types.VectorRecord) error

	// InsertAll stores records as one transaction: either every record in the
	// slice commits or none do.
	InsertAll(ctx context.Context, records []types.VectorRecord) error

	// GetByID returns the record with the given id, or types.ErrNotFound.
	GetByID(ctx context.Context, id string) (*types.VectorRecord, error)

	// GetAll returns every stored record ordered by ascending id.
	GetAll(ctx context.Context) ([]types.VectorRecord, error)

	// FindByMetadata returns records whose metadata value for key matches the
	// SQL LIKE pattern. This is a coarse prefilter, never a ranking signal.
	FindByMetadata(ctx context.Context, key, pattern string) ([]types.VectorRecord, error)

	// DeleteByID removes a record. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Dimension returns the fixed embedding dimension enforced by the store.
	Dimension() int

	// Close releases the underlying database handle.
	Close() error
}
