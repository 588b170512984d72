// Package embedder generates vector embeddings for text through pluggable
// providers.
//
// Two production providers are included: a local Ollama endpoint (the default
// for on-device operation) and the OpenAI embeddings API. Both cache results
// in an LRU keyed by content hash and retry transient failures with
// exponential backoff. A deterministic MockProvider supports tests and
// offline development.
//
// All providers produce vectors of a fixed dimension configured at
// construction; the OpenAI provider uses the v3 models' server-side
// dimensionality reduction to match the store's dimension.
package embedder
