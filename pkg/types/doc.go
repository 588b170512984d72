// Package types defines the shared domain types of the retrieval core:
// vector records, search results, ingestion documents, and the error
// taxonomy used across packages.
//
// These types are deliberately small and transport-agnostic. Richer typing of
// metadata (numeric ranges, dates) is a caller concern layered on top of the
// string-to-string mapping exposed here.
package types
