package types

import "errors"

// Domain errors shared across the retrieval core
var (
	// ErrDimensionMismatch is returned when a query or inserted vector does not
	// match the store's fixed dimensionality. Vectors are never truncated or
	// padded to fit.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidChunkConfig is returned when chunk overlap >= chunk size, which
	// would otherwise never advance through the token stream.
	ErrInvalidChunkConfig = errors.New("invalid chunk config: overlap must be smaller than size")

	// ErrNotFound is returned when a requested record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyQuery is returned for empty query text.
	ErrEmptyQuery = errors.New("query cannot be empty")
)
