// Package storage provides durable persistence for vector records.
//
// The Store interface is the module's persistence collaborator: insert,
// transactional batch insert, lookup, metadata prefiltering, and deletion
// over records whose embedding dimension is fixed at store construction.
//
// The SQLite implementation serializes embeddings as little-endian float32
// blobs and supports two build modes selected by build tags: a CGO build
// using github.com/mattn/go-sqlite3 and a pure Go build using
// modernc.org/sqlite. See build_cgo.go and build_purego.go.
package storage
