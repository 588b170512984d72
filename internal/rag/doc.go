// Package rag implements the retrieval-augmented generation pipeline: chunk
// documents, embed the chunks in bounded-concurrency batches, store them
// through the search engine, and answer questions by retrieving the most
// similar chunks and prompting a generator with them.
//
// Provenance travels in record metadata: every chunk records its source
// document and chunk index, plus any caller tags, so query answers can cite
// where their context came from.
package rag
